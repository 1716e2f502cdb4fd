package scoring

import (
	"fmt"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func domainError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}
