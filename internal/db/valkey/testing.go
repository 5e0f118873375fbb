package valkey

import "github.com/redis/rueidis"

// NewStoreForTest wraps an arbitrary rueidis client (usually a gomock one).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
