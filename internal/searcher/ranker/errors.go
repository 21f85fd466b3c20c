package ranker

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/errors"
)

// Contract violations inside the engine. Both wrap apperrors.ErrInternal and
// abort the call without partial results.
var (
	ErrCorpusMalformed   = fmt.Errorf("%w: malformed corpus", apperrors.ErrInternal)
	ErrDimensionMismatch = fmt.Errorf("%w: vector dimension mismatch", apperrors.ErrInternal)
)
