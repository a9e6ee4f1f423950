package discovery

import "errors"

// ErrUnknownScanner is returned for a scan type nobody registered
var ErrUnknownScanner = errors.New("scanner type not found")
