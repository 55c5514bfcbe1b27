// Package server exposes acquisition sessions over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/capture"
	"github.com/mrsingh-rishi/audio-scribe/model"
	"github.com/mrsingh-rishi/audio-scribe/output"
	"github.com/mrsingh-rishi/audio-scribe/session"
	"github.com/mrsingh-rishi/audio-scribe/upload"
)

type Server struct {
	App      *fiber.App
	Sessions *session.Registry
	// Tick is the elapsed-time period reported to capture clients.
	Tick time.Duration
}

type payloadResponse struct {
	MimeType    string `json:"mimeType"`
	DisplayName string `json:"displayName"`
	Size        int    `json:"size"`
}

type remoteRequest struct {
	URL string `json:"url"`
}

// captureControl is a text frame on the capture socket.
type captureControl struct {
	Type       string `json:"type"` // "start", "stop"
	Transcribe bool   `json:"transcribe"`
}

func New(sessions *session.Registry, bodyLimit int) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	s := &Server{App: app, Sessions: sessions, Tick: time.Second}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.Sessions.Len()})
	})

	s.App.Post("/sessions", s.createSession)
	s.App.Delete("/sessions/:id", s.deleteSession)
	s.App.Post("/sessions/:id/upload", s.upload)
	s.App.Post("/sessions/:id/remote", s.remote)
	s.App.Get("/sessions/:id/payload", s.payload)
	s.App.Post("/sessions/:id/transcribe", s.transcribe)

	// Browser recorder chunks arrive as binary frames; text frames steer.
	s.App.Get("/sessions/:id/capture", s.requireUpgrade, websocket.New(s.capture))
}

func (s *Server) Listen(addr string) error {
	log.Printf("Fiber server listening on %s", addr)
	return s.App.Listen(addr)
}

// Shutdown closes every session, then the listener.
func (s *Server) Shutdown() error {
	s.Sessions.CloseAll()
	return s.App.Shutdown()
}

func (s *Server) lookup(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := s.Sessions.Get(c.Params("id"))
	if !ok {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return sess, nil
}

func (s *Server) createSession(c *fiber.Ctx) error {
	sess, err := s.Sessions.Create()
	if err != nil {
		log.Printf("❌ creating session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create session"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": sess.ID})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if !s.Sessions.Delete(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) upload(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if sess == nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`file` field is required"})
	}
	p, err := sess.Upload(c.UserContext(), upload.FromMultipart(fh))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary(p))
}

func (s *Server) remote(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if sess == nil {
		return err
	}
	var req remoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`url` field is required"})
	}
	p, err := sess.Retrieve(c.UserContext(), req.URL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary(p))
}

func (s *Server) payload(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if sess == nil {
		return err
	}
	p, ok := sess.Payload()
	if !ok {
		return fail(c, model.ErrNoPayload)
	}
	return c.JSON(summary(p))
}

func (s *Server) transcribe(c *fiber.Ctx) error {
	sess, err := s.lookup(c)
	if sess == nil {
		return err
	}
	text, err := sess.Transcribe(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}

func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "websocket upgrade required"})
	}
	sess, err := s.lookup(c)
	if sess == nil {
		return err
	}
	c.Locals("session", sess)
	return c.Next()
}

func (s *Server) capture(conn *websocket.Conn) {
	defer conn.Close()
	sess, ok := conn.Locals("session").(*session.Session)
	if !ok {
		return
	}
	log.Printf("capture socket connected for session %s", sess.ID)

	out, err := output.NewCaptureOutput(conn, 16)
	if err != nil {
		log.Printf("❌ capture output: %v", err)
		return
	}
	out.Start()
	defer out.Stop()

	feed := capture.NewFeed(8)
	feed.OnRelease = out.SendReleased

	// Cancelled when the socket goes away, which abandons any recording.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opts := capture.Options{Tick: s.Tick, OnTick: out.SendTick}

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("capture socket for %s closed", sess.ID)
			} else {
				log.Printf("capture socket read error: %v", err)
			}
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			if err := feed.Push(ctx, msg); err != nil {
				out.SendError(err)
			}
		case websocket.TextMessage:
			var ctl captureControl
			if err := json.Unmarshal(msg, &ctl); err != nil {
				log.Printf("capture control unmarshal error: %v", err)
				continue
			}
			s.handleControl(ctx, sess, feed, opts, out, ctl)
		}
	}
}

func (s *Server) handleControl(ctx context.Context, sess *session.Session, feed *capture.Feed, opts capture.Options, out *output.CaptureOutput, ctl captureControl) {
	switch ctl.Type {
	case "start":
		if err := sess.StartCapture(ctx, feed, opts); err != nil {
			out.SendError(err)
			return
		}
		out.SendState(capture.Recording.String())

	case "stop":
		p, err := sess.StopCapture(ctx)
		if err != nil {
			out.SendError(err)
			return
		}
		out.SendPayload(p)
		out.SendState(capture.Idle.String())
		if !ctl.Transcribe {
			return
		}
		text, err := sess.Transcribe(ctx)
		if err != nil {
			out.SendError(err)
			return
		}
		out.SendTranscript(text)

	default:
		log.Printf("unknown capture control: %s", ctl.Type)
	}
}

func summary(p model.AudioPayload) payloadResponse {
	return payloadResponse{MimeType: p.MimeType(), DisplayName: p.DisplayName(), Size: p.Size()}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": model.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrInvalidReference):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrDeviceAccess),
		errors.Is(err, model.ErrSessionBusy),
		errors.Is(err, model.ErrNoPayload),
		errors.Is(err, model.ErrNotRecording):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrPayloadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrRetrievalExhausted),
		errors.Is(err, model.ErrService):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
