package extraction

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("OCRClient", func() {
	var (
		apiServer *ghttp.Server
		client    *OCRClient
		ctx       context.Context
	)

	BeforeEach(func() {
		apiServer = ghttp.NewServer()
		var err error
		client, err = NewOCRClient(apiServer.URL(), "test-key")
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		apiServer.Close()
	})

	Describe("NewOCRClient", func() {
		It("should require an api key", func() {
			_, err := NewOCRClient("", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Extract", func() {
		When("the API recognizes the receipt", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/parse/image"),
					ghttp.VerifyFormKV("apikey", "test-key"),
					ghttp.VerifyFormKV("url", "https://files.example.com/receipt.jpg"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"ParsedResults": []map[string]any{
							{"ParsedText": "Latte 3.50\nTOTAL 6.21\n"},
						},
						"IsErroredOnProcessing": false,
					}),
				))
			})

			It("should return the parsed amount and text", func() {
				result, err := client.Extract(ctx, "https://files.example.com/receipt.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Amount).To(Equal(6.21))
				Expect(result.Text).To(ContainSubstring("TOTAL 6.21"))
			})
		})

		When("the API reports a processing error", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"ParsedResults":         []map[string]any{},
					"IsErroredOnProcessing": true,
					"ErrorMessage":          []string{"Unable to recognize the file type"},
				}))
			})

			It("should return an error", func() {
				_, err := client.Extract(ctx, "https://files.example.com/receipt.jpg")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the API returns a server error", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
			})

			It("should return an error", func() {
				_, err := client.Extract(ctx, "https://files.example.com/receipt.jpg")
				Expect(err).To(HaveOccurred())
			})
		})

		When("no text contains an amount", func() {
			BeforeEach(func() {
				apiServer.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"ParsedResults": []map[string]any{
						{"ParsedText": "thanks for shopping"},
					},
					"IsErroredOnProcessing": false,
				}))
			})

			It("should return an error", func() {
				_, err := client.Extract(ctx, "https://files.example.com/receipt.jpg")
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
