package cutoutsched_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jd-au/cutoutsched"
)

// testLogger creates a logger for tests (only errors are shown)
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// StatusStoreTestSuite runs a shared spec against a StatusStore implementation.
func StatusStoreTestSuite(storeFactory func() (cutoutsched.StatusStore, func())) {
	var store cutoutsched.StatusStore
	var cleanup func()
	var ctx context.Context

	BeforeEach(func() {
		store, cleanup = storeFactory()
		ctx = context.Background()
	})

	AfterEach(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("should report an unmarked job as absent for both kinds", func() {
		for _, kind := range []cutoutsched.MarkerKind{cutoutsched.MarkerCompleted, cutoutsched.MarkerFailed} {
			exists, err := store.Exists(ctx, 1, kind)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		}
	})

	It("should report a marker after Mark", func() {
		Expect(store.Mark(ctx, 7, cutoutsched.MarkerCompleted)).To(Succeed())

		exists, err := store.Exists(ctx, 7, cutoutsched.MarkerCompleted)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("should keep the marker kinds independent", func() {
		Expect(store.Mark(ctx, 3, cutoutsched.MarkerFailed)).To(Succeed())

		failed, err := store.Exists(ctx, 3, cutoutsched.MarkerFailed)
		Expect(err).NotTo(HaveOccurred())
		Expect(failed).To(BeTrue())

		completed, err := store.Exists(ctx, 3, cutoutsched.MarkerCompleted)
		Expect(err).NotTo(HaveOccurred())
		Expect(completed).To(BeFalse())
	})

	It("should keep job ids independent", func() {
		Expect(store.Mark(ctx, 1, cutoutsched.MarkerCompleted)).To(Succeed())

		exists, err := store.Exists(ctx, 2, cutoutsched.MarkerCompleted)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("should tolerate marking the same job twice", func() {
		Expect(store.Mark(ctx, 5, cutoutsched.MarkerCompleted)).To(Succeed())
		Expect(store.Mark(ctx, 5, cutoutsched.MarkerCompleted)).To(Succeed())

		exists, err := store.Exists(ctx, 5, cutoutsched.MarkerCompleted)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("should reject a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Exists(cancelled, 1, cutoutsched.MarkerCompleted)
		Expect(err).To(HaveOccurred())
		Expect(store.Mark(cancelled, 1, cutoutsched.MarkerCompleted)).NotTo(Succeed())
	})
}
