package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig     = fmt.Errorf("knowledgesync: invalid config")
	ErrNotFound          = fmt.Errorf("knowledgesync: not found")
	ErrInvalidParams     = fmt.Errorf("knowledgesync: invalid params")
	ErrInternal          = fmt.Errorf("knowledgesync: internal error")
	ErrValidation        = fmt.Errorf("knowledgesync: validation failed")
	ErrSyncVerification  = fmt.Errorf("knowledgesync: sync verification failed")
	ErrProviderTransient = fmt.Errorf("knowledgesync: transient provider error")
)
