package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable unique id. The leading bytes encode the creation time.
func New() string {
	return ksuid.New().String()
}
