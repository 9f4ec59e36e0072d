package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		recognizer  *mockRecognizer
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		controller, err := NewController(recognizer, &mockRotator{}, newExtractor(), DefaultControllerConfig())
		Expect(err).NotTo(HaveOccurred())
		service = NewServiceWithDeps(controller, English, &fixedIDGenerator{id: "req-1"})
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	upload := func(filename string, data []byte) *http.Response {
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		if filename != "" {
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			part.Write(data)
		}
		writer.Close()

		req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/extract", &b)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		if auth.Username != "" {
			req.SetBasicAuth(auth.Username, auth.Password)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response) Report {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var report Report
		Expect(json.Unmarshal(body, &report)).To(Succeed())
		return report
	}

	BeforeEach(func() {
		recognizer = newMockRecognizer(resolvedText)
		auth = BasicAuth{}
	})

	JustBeforeEach(func() {
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleExtract", func() {
		When("an image is uploaded", func() {
			It("should return status OK", func() {
				resp := upload("faktura.png", pngBytes())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the result lines", func() {
				report := decode(upload("faktura.png", pngBytes()))
				Expect(report.Lines).To(Equal([]string{
					"Invoice number: 123/09/2024",
					"Issuance date: 2024-09-10",
				}))
				Expect(report.RequestID).To(Equal("req-1"))
				Expect(report.Status).To(Equal(StatusOK))
			})

			It("should set Content-Type to application/json", func() {
				resp := upload("faktura.png", pngBytes())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})

			It("should set CORS headers", func() {
				resp := upload("faktura.png", pngBytes())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			})
		})

		When("no file is selected", func() {
			It("should return status Bad Request with the no-image line", func() {
				resp := upload("", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				report := decode(resp)
				Expect(report.Lines).To(Equal([]string{"Take a photo or select an image first!"}))
			})
		})

		When("the file cannot be decoded", func() {
			It("should return status Unprocessable Entity", func() {
				resp := upload("faktura.jpg", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				report := decode(resp)
				Expect(report.Status).To(Equal(StatusFailed))
				Expect(report.Lines[0]).To(HavePrefix("Image load error: "))
			})
		})

		When("the engine fails", func() {
			BeforeEach(func() {
				recognizer.errs[0] = errEngine
			})

			It("should return status Bad Gateway with the engine message", func() {
				resp := upload("faktura.png", pngBytes())
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
				report := decode(resp)
				Expect(report.Lines).To(Equal([]string{"Image processing error: engine exploded"}))
				Expect(report.Outcome).To(Equal(OutcomeOCRFailed))
			})
		})

		When("the body is not multipart at all", func() {
			It("should answer with the no-image line", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/extract", "application/json", strings.NewReader("{}"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				report := decode(resp)
				Expect(report.Lines).To(Equal([]string{"Take a photo or select an image first!"}))
				Expect(report.Outcome).To(Equal(OutcomeRejected))
				Expect(recognizer.Calls()).To(Equal(0))
			})
		})

		When("the multipart form is malformed", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/extract", "multipart/form-data", bytes.NewBufferString("invalid"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("request method is not POST", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/extract")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("handleExtractText", func() {
		It("should extract from posted text", func() {
			body := `{"text": "` + dateOnlyText + `"}`
			resp, err := http.Post(ghttpServer.URL()+"/api/extract/text", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			report := decode(resp)
			Expect(report.Lines).To(Equal([]string{"Invoice number not found.", "Issuance date: 2024-09-10"}))
			Expect(recognizer.Calls()).To(Equal(0))
		})

		It("should reject an invalid body", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/extract/text", "application/json", strings.NewReader("{"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp.Body.Close()
		})
	})

	Describe("handleHealth", func() {
		It("should return status OK", func() {
			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})
	})

	Describe("preflight", func() {
		It("should answer OPTIONS with No Content", func() {
			req, err := http.NewRequest("OPTIONS", ghttpServer.URL()+"/api/extract", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
			resp.Body.Close()
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
		})

		When("credentials are missing", func() {
			It("should return status Unauthorized", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/extract/text", "application/json", strings.NewReader(`{"text":""}`))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
				resp.Body.Close()
			})
		})

		When("credentials are wrong", func() {
			It("should return status Unauthorized", func() {
				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/extract/text", strings.NewReader(`{"text":""}`))
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				resp.Body.Close()
			})
		})

		When("credentials are correct", func() {
			It("should run the extraction", func() {
				resp := upload("faktura.png", pngBytes())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})

		It("should leave the health check open", func() {
			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})
	})
})

var _ = Describe("statusFor", func() {
	It("should map timeouts to Gateway Timeout", func() {
		err := &OCRFailure{Cause: ErrOCRTimeout}
		Expect(statusFor(err)).To(Equal(http.StatusGatewayTimeout))
	})
})

var _ = Describe("contentTypeFor", func() {
	It("should recognise scanner formats", func() {
		Expect(contentTypeFor("scan.TIFF")).To(Equal("image/tiff"))
		Expect(contentTypeFor("photo.heic")).To(Equal("image/heic"))
		Expect(contentTypeFor("unknown.xyz")).To(Equal("application/octet-stream"))
	})
})
