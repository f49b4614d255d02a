package cutoutsched_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jd-au/cutoutsched"
)

var _ = Describe("FileStatusStore", func() {
	StatusStoreTestSuite(func() (cutoutsched.StatusStore, func()) {
		tmpDir, err := os.MkdirTemp("", "cutoutsched_status_*")
		Expect(err).NotTo(HaveOccurred())

		store, err := cutoutsched.NewFileStatusStore(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		return store, func() {
			_ = store.Close()
			_ = os.RemoveAll(tmpDir)
		}
	})

	Describe("marker layout", func() {
		It("should write markers as <id>.<KIND> files in the status folder", func() {
			tmpDir, err := os.MkdirTemp("", "cutoutsched_status_*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(tmpDir)

			store, err := cutoutsched.NewFileStatusStore(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			ctx := context.Background()
			Expect(store.Mark(ctx, 12, cutoutsched.MarkerCompleted)).To(Succeed())
			Expect(store.Mark(ctx, 12, cutoutsched.MarkerFailed)).To(Succeed())

			Expect(filepath.Join(tmpDir, "12.COMPLETED")).To(BeARegularFile())
			Expect(filepath.Join(tmpDir, "12.FAILED")).To(BeARegularFile())
		})

		It("should observe markers written by an external job", func() {
			tmpDir, err := os.MkdirTemp("", "cutoutsched_status_*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(tmpDir)

			store, err := cutoutsched.NewFileStatusStore(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// A job touching its marker file, the original convention.
			Expect(os.WriteFile(filepath.Join(tmpDir, "4.COMPLETED"), nil, 0o644)).To(Succeed())

			exists, err := store.Exists(context.Background(), 4, cutoutsched.MarkerCompleted)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("should create the status folder if missing", func() {
			tmpDir, err := os.MkdirTemp("", "cutoutsched_status_*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(tmpDir)

			nested := filepath.Join(tmpDir, "status", "8906")
			store, err := cutoutsched.NewFileStatusStore(nested)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Root()).To(Equal(nested))
			Expect(nested).To(BeADirectory())
		})
	})
})
