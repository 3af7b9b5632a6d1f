package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db *BoltDB
	)

	BeforeEach(func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveReceipt and GetReceipt", func() {
		var receipt *Receipt

		BeforeEach(func() {
			receipt = &Receipt{
				ID:          "00000000000000000001",
				Date:        "2024-01-01",
				Amount:      12.5,
				Invoice:     "http://example.com/img.jpg",
				Description: "coffee",
				TypeID:      1,
			}
			Expect(db.SaveReceipt("user-a", receipt)).To(Succeed())
		})

		It("should round-trip all fields", func() {
			got, err := db.GetReceipt("user-a", receipt.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(receipt))
		})

		It("should not expose the receipt under another user's namespace", func() {
			_, err := db.GetReceipt("user-b", receipt.ID)
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should return ErrNotFound for an unknown id", func() {
			_, err := db.GetReceipt("user-a", "unknown")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListReceipts", func() {
		When("the user has no receipts", func() {
			It("should return an empty slice", func() {
				receipts, err := db.ListReceipts("user-a")
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).NotTo(BeNil())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("receipts were saved", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt("user-a", &Receipt{ID: "00000000000000000001", Description: "first"})).To(Succeed())
				Expect(db.SaveReceipt("user-a", &Receipt{ID: "00000000000000000002", Description: "second"})).To(Succeed())
				Expect(db.SaveReceipt("user-a", &Receipt{ID: "00000000000000000003", Description: "third"})).To(Succeed())
				Expect(db.SaveReceipt("user-b", &Receipt{ID: "00000000000000000004", Description: "other"})).To(Succeed())
			})

			It("should return the user's receipts in insertion order", func() {
				receipts, err := db.ListReceipts("user-a")
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(3))
				Expect(receipts[0].Description).To(Equal("first"))
				Expect(receipts[1].Description).To(Equal("second"))
				Expect(receipts[2].Description).To(Equal("third"))
			})

			It("should never mix namespaces", func() {
				receipts, err := db.ListReceipts("user-b")
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(1))
				Expect(receipts[0].Description).To(Equal("other"))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt("user-a", &Receipt{ID: "00000000000000000001"})).To(Succeed())
		})

		It("should remove the receipt", func() {
			Expect(db.DeleteReceipt("user-a", "00000000000000000001")).To(Succeed())
			_, err := db.GetReceipt("user-a", "00000000000000000001")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should succeed for an unknown id", func() {
			Expect(db.DeleteReceipt("user-a", "unknown")).To(Succeed())
		})

		It("should succeed for a user with no namespace yet", func() {
			Expect(db.DeleteReceipt("user-c", "00000000000000000001")).To(Succeed())
		})
	})
})
