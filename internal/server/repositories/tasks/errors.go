package tasks

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophtasks/internal/common"
)

// wrap leaves nil and common.ErrorNotFound as they are and marks everything
// else as a driver failure.
func wrap(err error) error {
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("db error: %w", err)
}
