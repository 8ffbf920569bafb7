// Package stubserver is a small in-process stand-in for the document
// question-answering service. It speaks the same wire contract so the
// client can be developed and tested without the real retrieval stack.
package stubserver

import (
	"io"
	"net"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/csheth/docqa/internal/backend"
	"github.com/csheth/docqa/internal/docs"
)

const noMatchAnswer = "I could not find anything about that in the uploaded documents."

// Options tunes the stub.
type Options struct {
	Logger       *zap.Logger
	ChunkSize    int
	ChunkOverlap int
	// FailAsk, when set, makes every /ask return 500 with this detail.
	FailAsk string
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Server serves /upload, /ask, /clear and /health.
type Server struct {
	app    *fiber.App
	store  *store
	logger *zap.Logger
	opts   Options
}

// New builds the stub and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
	})
	s := &Server{
		app:    app,
		store:  newStore(opts.ChunkSize, opts.ChunkOverlap),
		logger: logger.Named("stub"),
		opts:   opts,
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Document Q&A API", "status": "running"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(backend.Health{Status: "healthy"})
	})
	app.Post("/upload", s.handleUpload)
	app.Post("/ask", s.handleAsk)
	app.Delete("/clear", s.handleClear)
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("stub backend listening", zap.String("listen", addr))
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Documents lists the names ingested so far.
func (s *Server) Documents() []string {
	return s.store.documents()
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Detail: "file is required"})
	}
	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !docs.Accepted(name) {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Detail: "Unsupported file type: " + ext})
	}

	file, err := header.Open()
	if err != nil {
		return s.fail(c, "open upload", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return s.fail(c, "read upload", err)
	}
	text, err := extractText(ext, data)
	if err != nil {
		return s.fail(c, "extract text", err)
	}

	chunks := s.store.add(name, text)
	s.logger.Info("document ingested", zap.String("filename", name), zap.Int("chunks", chunks))
	return c.JSON(backend.UploadResult{
		Message:  "Document processed successfully",
		Filename: name,
		Chunks:   chunks,
	})
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req backend.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Detail: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Detail: "question is required"})
	}
	if s.opts.FailAsk != "" {
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Detail: s.opts.FailAsk})
	}

	s.logger.Debug("question received",
		zap.String("question", req.Question),
		zap.Int("history", len(req.ChatHistory)),
	)
	answer, sources := s.store.search(req.Question)
	if answer == "" {
		answer = noMatchAnswer
	}
	return c.JSON(backend.Answer{Answer: answer, Sources: sources})
}

func (s *Server) handleClear(c *fiber.Ctx) error {
	s.store.clear()
	s.logger.Info("documents cleared")
	return c.JSON(fiber.Map{"message": "Database cleared successfully"})
}

func (s *Server) fail(c *fiber.Ctx, step string, err error) error {
	s.logger.Warn("upload failed", zap.String("step", step), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Detail: err.Error()})
}
