package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/guest"
	"github.com/swifthaul/chat-service/internal/send"
)

type guestSessionReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) createGuestSession(c *fiber.Ctx) error {
	var req guestSessionReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	sess, err := s.guests.Register(c.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, guest.ErrNameRequired) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s.log.Errorw("guest register", "err", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"token": sess.Token})
}

func (s *Server) listConversations(c *fiber.Ctx) error {
	viewer, _ := authFromCtx(c).SenderRef()
	return c.JSON(s.convs.List(c.Context(), viewer))
}

type sendMessageReq struct {
	ReceiverID   string `json:"receiver_id"`
	ReceiverKind string `json:"receiver_kind"`
	Content      string `json:"content"`
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var req sendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	receiver := domain.ParticipantRef{
		ID:   req.ReceiverID,
		Kind: domain.ParticipantKind(req.ReceiverKind),
	}
	if receiver.Kind == "" {
		// support conversations pair every visitor with an employee
		receiver.Kind = domain.KindEmployee
	}

	msg, err := s.pipeline.Send(c.Context(), authFromCtx(c), receiver, req.Content)
	switch {
	case errors.Is(err, send.ErrEmptyContent), errors.Is(err, send.ErrInvalidReceiver):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, send.ErrNoSender):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case err != nil:
		s.log.Errorw("send message", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "message not sent")
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

func (s *Server) markConversationRead(c *fiber.Ctx) error {
	viewer, _ := authFromCtx(c).SenderRef()
	counterpart := domain.ParticipantRef{
		ID:   c.Params("counterpart_id"),
		Kind: domain.ParticipantKind(c.Query("kind", string(domain.KindEmployee))),
	}
	if err := counterpart.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	n, err := s.gw.MarkConversationRead(c.Context(), viewer, counterpart)
	if err != nil {
		s.log.Errorw("mark conversation read", "err", err, "counterpart", counterpart.Key())
		return fiber.NewError(fiber.StatusInternalServerError, "mark read failed")
	}
	return c.JSON(fiber.Map{"success": true, "marked": n})
}

type subscribeReq struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
}

func (s *Server) subscribeNotifications(c *fiber.Ctx) error {
	var req subscribeReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	actx := authFromCtx(c)
	if err := s.subs.Subscribe(c.Context(), req.EntityID, req.EntityType, actx.Bearer()); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleWS() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		actx, _ := conn.Locals(authCtxKey).(auth.Context)
		viewer, ok := actx.SenderRef()
		if !ok {
			_ = conn.Close()
			return
		}
		s.ws.Handle(conn, viewer)
	})
}
