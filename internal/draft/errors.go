package draft

import "errors"

var ErrNoDraft = errors.New("no recoverable draft")
