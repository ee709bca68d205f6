package upstream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldwise/bridge/pkg/upstream"
)

func TestUpstream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Upstream Suite")
}

var _ = Describe("Client", func() {
	var (
		client *upstream.Client
		server *httptest.Server
	)

	AfterEach(func() {
		server.Close()
	})

	Describe("Stream", func() {
		Context("when the backend answers successfully", func() {
			BeforeEach(func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.URL.Path).To(Equal("/api/agent/chat"))
					Expect(r.Method).To(Equal(http.MethodPost))
					w.Header().Set(upstream.HeaderModel, "harvest-1")
					w.Header().Set(upstream.HeaderSessionID, "s-77")
					w.WriteHeader(http.StatusOK)
					w.Write([]byte("data: {\"type\":\"done\"}\n\n"))
				}))
				client = upstream.NewClient(server.URL)
			})

			It("returns the body and fallback headers", func() {
				stream, err := client.Stream(context.Background(), upstream.ChatRequest{Message: "hi"})
				Expect(err).ToNot(HaveOccurred())
				defer stream.Body.Close()

				Expect(stream.Model).To(Equal("harvest-1"))
				Expect(stream.SessionID).To(Equal("s-77"))

				body, err := io.ReadAll(stream.Body)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("done"))
			})
		})

		Context("when the backend responds with an error status", func() {
			BeforeEach(func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte(`{"error":"agent overloaded"}`))
				}))
				client = upstream.NewClient(server.URL)
			})

			It("returns a StatusError mirroring the status code", func() {
				_, err := client.Stream(context.Background(), upstream.ChatRequest{Message: "hi"})
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, upstream.ErrUpstreamStatus)).To(BeTrue())

				var statusErr *upstream.StatusError
				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
				Expect(statusErr.Message).To(Equal("agent overloaded"))
			})
		})

		Context("when the error body is not json", func() {
			BeforeEach(func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
					w.Write([]byte("upstream exploded"))
				}))
				client = upstream.NewClient(server.URL)
			})

			It("falls back to the raw body text", func() {
				_, err := client.Stream(context.Background(), upstream.ChatRequest{Message: "hi"})
				var statusErr *upstream.StatusError
				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Message).To(Equal("upstream exploded"))
			})
		})
	})

	Describe("control actions", func() {
		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch {
				case r.URL.Path == "/api/agent/threads" && r.Method == http.MethodGet:
					w.Write([]byte(`{"threads":[{"id":"t-1","title":"rice planting"}]}`))
				case r.URL.Path == "/api/agent/threads" && r.Method == http.MethodPost:
					w.Write([]byte(`{"id":"t-2","title":"new thread"}`))
				case r.URL.Path == "/api/agent/actions/undo":
					w.Write([]byte(`{"reverted":true,"message":"task removed"}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			client = upstream.NewClient(server.URL)
		})

		It("lists threads", func() {
			resp, err := client.ListThreads(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Threads).To(HaveLen(1))
			Expect(resp.Threads[0].ID).To(Equal("t-1"))
		})

		It("creates a thread", func() {
			thread, err := client.CreateThread(context.Background(), upstream.CreateThreadRequest{Title: "new thread"})
			Expect(err).ToNot(HaveOccurred())
			Expect(thread.ID).To(Equal("t-2"))
		})

		It("undoes the last action", func() {
			resp, err := client.UndoLastAction(context.Background(), upstream.UndoRequest{ThreadID: "t-1"})
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Reverted).To(BeTrue())
		})
	})
})
