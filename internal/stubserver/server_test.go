package stubserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/stubserver"
)

func uploadRequest(name, content string) *http.Request {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())
	Expect(form.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req
}

func askRequest(question string, history ...backend.HistoryEntry) *http.Request {
	if history == nil {
		history = []backend.HistoryEntry{}
	}
	payload, err := json.Marshal(backend.AskRequest{Question: question, ChatHistory: history})
	Expect(err).NotTo(HaveOccurred())
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var out T
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(data, &out)).To(Succeed())
	return out
}

var _ = Describe("Stub backend", func() {
	var server *stubserver.Server

	BeforeEach(func() {
		server = stubserver.New(stubserver.Options{ChunkSize: 50, ChunkOverlap: 10})
	})

	It("reports health", func() {
		resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(decode[backend.Health](resp).Status).To(Equal("healthy"))
	})

	It("chunks uploads and answers with sources", func() {
		content := strings.Repeat("The submission deadline is March 1 for every team. ", 3)
		resp, err := server.App().Test(uploadRequest("notes.md", content))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		result := decode[backend.UploadResult](resp)
		Expect(result.Filename).To(Equal("notes.md"))
		Expect(result.Chunks).To(BeNumerically(">", 1))
		Expect(server.Documents()).To(Equal([]string{"notes.md"}))

		resp, err = server.App().Test(askRequest("What is the deadline?"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		answer := decode[backend.Answer](resp)
		Expect(answer.Answer).To(ContainSubstring("deadline"))
		Expect(answer.Sources).To(Equal([]string{"notes.md"}))
	})

	It("answers without sources when nothing matches", func() {
		resp, err := server.App().Test(askRequest("Unrelated question about zebras"))
		Expect(err).NotTo(HaveOccurred())
		answer := decode[backend.Answer](resp)
		Expect(answer.Answer).NotTo(BeEmpty())
		Expect(answer.Sources).To(BeEmpty())
	})

	It("rejects unsupported file types with a detail", func() {
		resp, err := server.App().Test(uploadRequest("image.png", "png"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(decode[map[string]string](resp)["detail"]).To(Equal("Unsupported file type: .png"))
		Expect(server.Documents()).To(BeEmpty())
	})

	It("rejects blank questions", func() {
		resp, err := server.App().Test(askRequest("   "))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})

	It("clears every document", func() {
		_, err := server.App().Test(uploadRequest("a.txt", "alpha"))
		Expect(err).NotTo(HaveOccurred())
		resp, err := server.App().Test(httptest.NewRequest(http.MethodDelete, "/clear", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(server.Documents()).To(BeEmpty())
	})

	It("injects ask failures", func() {
		failing := stubserver.New(stubserver.Options{FailAsk: "index unavailable"})
		resp, err := failing.App().Test(askRequest("anything"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(decode[map[string]string](resp)["detail"]).To(Equal("index unavailable"))
	})

	Context("over a real listener", func() {
		var (
			client   *backend.Client
			listener net.Listener
		)

		BeforeEach(func() {
			var err error
			listener, err = net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			go func() { _ = server.Serve(listener) }()
			client = backend.New(backend.Config{BaseURL: "http://" + listener.Addr().String()})
		})

		AfterEach(func() {
			Expect(server.Shutdown()).To(Succeed())
		})

		It("round-trips through the client", func() {
			ctx := context.Background()
			path := filepath.Join(GinkgoT().TempDir(), "notes.txt")
			Expect(os.WriteFile(path, []byte("The deadline is March 1."), 0o644)).To(Succeed())

			Eventually(func() error {
				_, err := client.Health(ctx)
				return err
			}).Should(Succeed())

			result, err := client.Upload(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Chunks).To(Equal(1))

			answer, err := client.Ask(ctx, backend.AskRequest{Question: "When is the deadline?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Answer).To(ContainSubstring("March 1"))
			Expect(answer.Sources).To(ConsistOf("notes.txt"))

			Expect(client.Clear(ctx)).To(Succeed())
			Expect(server.Documents()).To(BeEmpty())
		})
	})
})
