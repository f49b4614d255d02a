//go:build sqlite
// +build sqlite

package cutoutsched_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jd-au/cutoutsched"
)

var _ = Describe("SQLiteStatusStore", func() {
	StatusStoreTestSuite(func() (cutoutsched.StatusStore, func()) {
		tmpFile, err := os.CreateTemp("", "cutoutsched_sqlite_*.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(tmpFile.Close()).To(Succeed())

		store, err := cutoutsched.NewSQLiteStatusStore(tmpFile.Name())
		Expect(err).NotTo(HaveOccurred())

		return store, func() {
			_ = store.Close()
			_ = os.Remove(tmpFile.Name())
		}
	})
})
