package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/calmspace/minigames/internal/models"
	"github.com/calmspace/minigames/internal/services/matchmaker"
	"github.com/calmspace/minigames/internal/services/play"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// requestTimeout bounds every store round trip so a slow Redis surfaces as a
// 503 instead of a hung poll
const requestTimeout = 2 * time.Second

// Handler serves the matchmaking and session API
type Handler struct {
	matchmaker  matchmaker.Service
	play        play.Service
	redisClient *redis.Client
}

// Config holds the handler's dependencies
type Config struct {
	Matchmaker  matchmaker.Service
	Play        play.Service
	RedisClient *redis.Client
}

// New creates a new API handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Matchmaker == nil || cfg.Play == nil {
		return nil, errors.New("matchmaker and play services are required")
	}

	return &Handler{
		matchmaker:  cfg.Matchmaker,
		play:        cfg.Play,
		redisClient: cfg.RedisClient,
	}, nil
}

// SetupRoutes registers the API routes on the app
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/healthz", h.Health)

	app.Post("/matchmaking/join", h.JoinMatchmaking)
	app.Post("/matchmaking/leave", h.LeaveMatchmaking)
	app.Get("/players/:playerId/session", h.GetMyGame)
	app.Get("/sessions/:sessionId", h.GetSession)
	app.Post("/sessions/:sessionId/moves", h.MakeMove)
	app.Post("/sessions/:sessionId/end", h.EndGame)
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), requestTimeout)
}

// Health reports whether the store is reachable
func (h *Handler) Health(c *fiber.Ctx) error {
	if h.redisClient != nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
				Code:    "StoreUnavailable",
				Message: "redis unreachable",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// JoinMatchmaking pairs the caller or enqueues them
func (h *Handler) JoinMatchmaking(c *fiber.Ctx) error {
	var req joinRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	gameType, ok := parseGameType(req.GameType)
	if !ok {
		return badRequest(c, "unknown game type")
	}

	if req.PlayerID == "" {
		return badRequest(c, "playerId is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.matchmaker.RequestMatch(ctx, &matchmaker.RequestMatchInput{
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		GameType:   gameType,
	})
	if err != nil {
		return writeError(c, err)
	}

	resp := joinResponse{Matched: out.Matched}
	if out.Matched {
		resp.SessionID = out.Session.ID
		resp.OpponentName = out.OpponentName
		resp.Session = toSessionDTO(out.Session)
	}

	return c.JSON(resp)
}

// LeaveMatchmaking removes the caller's waiting entry
func (h *Handler) LeaveMatchmaking(c *fiber.Ctx) error {
	var req leaveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	gameType, ok := parseGameType(req.GameType)
	if !ok {
		return badRequest(c, "unknown game type")
	}

	if req.PlayerID == "" {
		return badRequest(c, "playerId is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.matchmaker.LeaveQueue(ctx, &matchmaker.LeaveQueueInput{
		PlayerID: req.PlayerID,
		GameType: gameType,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(ackResponse{Success: out.Success})
}

// GetMyGame returns the session the caller currently occupies
func (h *Handler) GetMyGame(c *fiber.Ctx) error {
	playerID := c.Params("playerId")

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.play.GetSessionByParticipant(ctx, &play.GetSessionByParticipantInput{
		PlayerID: playerID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(toSessionDTO(out.Session))
}

// GetSession returns a session by id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.play.GetSession(ctx, &play.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(toSessionDTO(out.Session))
}

// MakeMove applies a move to the session
func (h *Handler) MakeMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if req.PlayerID == "" {
		return badRequest(c, "playerId is required")
	}

	if req.Cell == nil {
		return badRequest(c, "cell is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.play.MakeMove(ctx, &play.MakeMoveInput{
		SessionID: c.Params("sessionId"),
		PlayerID:  req.PlayerID,
		Cell:      *req.Cell,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(toSessionDTO(out.Session))
}

// EndGame finishes the session and releases both players
func (h *Handler) EndGame(c *fiber.Ctx) error {
	var req endRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if req.PlayerID == "" {
		return badRequest(c, "playerId is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.play.EndGame(ctx, &play.EndGameInput{
		SessionID: c.Params("sessionId"),
		PlayerID:  req.PlayerID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(ackResponse{Success: out.Success})
}

func parseGameType(raw string) (models.GameType, bool) {
	if raw == "" {
		return models.GameTypeTicTacToe, true
	}
	for _, gt := range models.AllGameTypes {
		if string(gt) == raw {
			return gt, true
		}
	}
	return "", false
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Code:    "BadRequest",
		Message: msg,
	})
}

// writeError maps service errors to HTTP. Validation rejections tell the
// client to refresh state; only StoreUnavailable hints at retrying.
func writeError(c *fiber.Ctx, err error) error {
	var status int
	var code string

	switch {
	case errors.Is(err, play.ErrSessionNotFound):
		status, code = fiber.StatusNotFound, "SessionNotFound"
	case errors.Is(err, play.ErrSessionNotActive):
		status, code = fiber.StatusConflict, "SessionNotActive"
	case errors.Is(err, play.ErrNotYourTurn):
		status, code = fiber.StatusConflict, "NotYourTurn"
	case errors.Is(err, play.ErrInvalidPosition):
		status, code = fiber.StatusBadRequest, "InvalidPosition"
	case errors.Is(err, play.ErrCellOccupied):
		status, code = fiber.StatusConflict, "CellOccupied"
	case errors.Is(err, play.ErrNotParticipant):
		status, code = fiber.StatusForbidden, "NotParticipant"
	case errors.Is(err, play.ErrInvalidInput), errors.Is(err, matchmaker.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "BadRequest"
	case errors.Is(err, play.ErrStoreUnavailable), errors.Is(err, matchmaker.ErrStoreUnavailable):
		status, code = fiber.StatusServiceUnavailable, "StoreUnavailable"
	default:
		status, code = fiber.StatusInternalServerError, "Internal"
	}

	return c.Status(status).JSON(errorResponse{
		Code:    code,
		Message: err.Error(),
	})
}
