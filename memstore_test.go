package cutoutsched_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jd-au/cutoutsched"
)

var _ = Describe("InMemoryStatusStore", func() {
	StatusStoreTestSuite(func() (cutoutsched.StatusStore, func()) {
		store := cutoutsched.NewInMemoryStatusStore()
		return store, func() {
			_ = store.Close()
		}
	})

	Describe("closed store", func() {
		It("should refuse operations after Close", func() {
			store := cutoutsched.NewInMemoryStatusStore()
			Expect(store.Close()).To(Succeed())

			_, err := store.Exists(context.Background(), 1, cutoutsched.MarkerCompleted)
			Expect(err).To(MatchError(cutoutsched.ErrStoreClosed))

			err = store.Mark(context.Background(), 1, cutoutsched.MarkerCompleted)
			Expect(err).To(MatchError(cutoutsched.ErrStoreClosed))
		})
	})
})
