package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/calmspace/minigames/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	repo    Repository
	testNow time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	s.testNow = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) newSession(id string) *models.GameSession {
	return &models.GameSession{
		ID:          id,
		GameType:    models.GameTypeTicTacToe,
		SeatA:       models.SeatedPlayer{PlayerID: "player-a", PlayerName: "Alice"},
		SeatB:       models.SeatedPlayer{PlayerID: "player-b", PlayerName: "Bob"},
		CurrentTurn: "player-a",
		Status:      models.SessionStatusActive,
		Version:     1,
		CreatedAt:   s.testNow,
		LastMoveAt:  s.testNow,
	}
}

func (s *RedisRepositoryTestSuite) TestCreateAndGetSession() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	err := s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour})
	s.Require().NoError(err)

	got, err := s.repo.GetSession(ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Equal("test-session-id", got.ID)
	s.Equal(models.SessionStatusActive, got.Status)
	s.Equal("player-a", got.CurrentTurn)
	s.Equal(int64(1), got.Version)
	s.Equal(models.MarkEmpty, got.Board[0])

	ids, err := s.repo.ListActiveSessionIDs(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"test-session-id"}, ids)

	// Record and links carry the TTL
	s.Greater(s.mr.TTL("gamesession:test-session-id"), time.Duration(0))
	s.Greater(s.mr.TTL("playersession:player-a"), time.Duration(0))
	s.Greater(s.mr.TTL("playersession:player-b"), time.Duration(0))
}

func (s *RedisRepositoryTestSuite) TestCreateSessionRefusesSeatedParticipant() {
	ctx := context.Background()

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{
		Session: s.newSession("first-session"),
		TTL:     time.Hour,
	}))

	// player-b is live in first-session; a second seating must not be written
	second := s.newSession("second-session")
	second.SeatA = models.SeatedPlayer{PlayerID: "player-c", PlayerName: "Carol"}
	second.CurrentTurn = "player-c"

	err := s.repo.CreateSession(ctx, &CreateSessionInput{Session: second, TTL: time.Hour})
	s.ErrorIs(err, ErrParticipantLinked)

	// Nothing of the refused session landed
	_, err = s.repo.GetSession(ctx, &GetSessionInput{SessionID: "second-session"})
	s.ErrorIs(err, ErrSessionNotFound)
	s.False(s.mr.Exists("playersession:player-c"))

	got, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-b"})
	s.Require().NoError(err)
	s.Equal("first-session", got.ID)

	ids, err := s.repo.ListActiveSessionIDs(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"first-session"}, ids)
}

func (s *RedisRepositoryTestSuite) TestCreateSessionReseatsAfterFinish() {
	ctx := context.Background()
	first := s.newSession("first-session")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: first, TTL: time.Hour}))

	finished := *first
	finished.Status = models.SessionStatusFinished
	finished.Winner = "player-a"
	finished.Version = 2
	s.Require().NoError(s.repo.CompareAndSaveSession(ctx, &CompareAndSaveSessionInput{
		Session:         &finished,
		ExpectedVersion: 1,
		TTL:             5 * time.Minute,
	}))

	// The lingering link to the finished session does not block a new seat
	second := s.newSession("second-session")
	second.SeatB = models.SeatedPlayer{PlayerID: "player-c", PlayerName: "Carol"}

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: second, TTL: time.Hour}))

	got, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-a"})
	s.Require().NoError(err)
	s.Equal("second-session", got.ID)
}

func (s *RedisRepositoryTestSuite) TestUnlinkKeepsRedirectedLink() {
	ctx := context.Background()
	first := s.newSession("first-session")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: first, TTL: time.Hour}))

	finished := *first
	finished.Status = models.SessionStatusFinished
	finished.Winner = "player-b"
	finished.Version = 2
	s.Require().NoError(s.repo.CompareAndSaveSession(ctx, &CompareAndSaveSessionInput{
		Session:         &finished,
		ExpectedVersion: 1,
		TTL:             5 * time.Minute,
	}))

	second := s.newSession("second-session")
	second.SeatB = models.SeatedPlayer{PlayerID: "player-c", PlayerName: "Carol"}
	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: second, TTL: time.Hour}))

	// Retiring the old session must not touch player-a's redirected link
	s.Require().NoError(s.repo.UnlinkParticipant(ctx, &UnlinkParticipantInput{
		PlayerID:  "player-a",
		SessionID: "first-session",
	}))
	s.Require().NoError(s.repo.DeleteSession(ctx, &DeleteSessionInput{SessionID: "first-session"}))

	got, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-a"})
	s.Require().NoError(err)
	s.Equal("second-session", got.ID)
}

func (s *RedisRepositoryTestSuite) TestGetSessionNotFound() {
	_, err := s.repo.GetSession(context.Background(), &GetSessionInput{SessionID: "missing"})
	s.Require().Error(err)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RedisRepositoryTestSuite) TestGetSessionByParticipant() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))

	got, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-b"})
	s.Require().NoError(err)
	s.Equal("test-session-id", got.ID)

	_, err = s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-c"})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RedisRepositoryTestSuite) TestGetSessionByParticipantDropsDanglingLink() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))

	// Simulate the record expiring while the link survives
	s.mr.Del("gamesession:test-session-id")

	_, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-a"})
	s.ErrorIs(err, ErrSessionNotFound)
	s.False(s.mr.Exists("playersession:player-a"))
}

func (s *RedisRepositoryTestSuite) TestCompareAndSaveSession() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))

	updated := *sess
	updated.Board[4] = models.MarkX
	updated.CurrentTurn = "player-b"
	updated.Version = 2

	err := s.repo.CompareAndSaveSession(ctx, &CompareAndSaveSessionInput{
		Session:         &updated,
		ExpectedVersion: 1,
		TTL:             time.Hour,
	})
	s.Require().NoError(err)

	got, err := s.repo.GetSession(ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Equal(models.MarkX, got.Board[4])
	s.Equal("player-b", got.CurrentTurn)
	s.Equal(int64(2), got.Version)
}

func (s *RedisRepositoryTestSuite) TestCompareAndSaveSessionConflict() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))

	// A writer with a stale version loses
	stale := *sess
	stale.Board[0] = models.MarkO
	stale.Version = 2

	err := s.repo.CompareAndSaveSession(ctx, &CompareAndSaveSessionInput{
		Session:         &stale,
		ExpectedVersion: 7,
		TTL:             time.Hour,
	})
	s.ErrorIs(err, ErrVersionConflict)

	// Board untouched
	got, err := s.repo.GetSession(ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.Require().NoError(err)
	s.Equal(models.MarkEmpty, got.Board[0])
	s.Equal(int64(1), got.Version)
}

func (s *RedisRepositoryTestSuite) TestCompareAndSaveSessionMissing() {
	sess := s.newSession("never-created")
	sess.Version = 2

	err := s.repo.CompareAndSaveSession(context.Background(), &CompareAndSaveSessionInput{
		Session:         sess,
		ExpectedVersion: 1,
		TTL:             time.Hour,
	})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RedisRepositoryTestSuite) TestFinishedSessionLeavesActiveIndex() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))

	finished := *sess
	finished.Status = models.SessionStatusFinished
	finished.Winner = "player-a"
	finished.Version = 2

	err := s.repo.CompareAndSaveSession(ctx, &CompareAndSaveSessionInput{
		Session:         &finished,
		ExpectedVersion: 1,
		TTL:             5 * time.Minute,
	})
	s.Require().NoError(err)

	ids, err := s.repo.ListActiveSessionIDs(ctx)
	s.Require().NoError(err)
	s.Len(ids, 0)

	// Record and links shrink to the post-game grace window
	s.LessOrEqual(s.mr.TTL("gamesession:test-session-id"), 5*time.Minute)
	s.LessOrEqual(s.mr.TTL("playersession:player-a"), 5*time.Minute)
	s.LessOrEqual(s.mr.TTL("playersession:player-b"), 5*time.Minute)
}

func (s *RedisRepositoryTestSuite) TestDeleteSession() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))
	s.Require().NoError(s.repo.DeleteSession(ctx, &DeleteSessionInput{SessionID: "test-session-id"}))

	_, err := s.repo.GetSession(ctx, &GetSessionInput{SessionID: "test-session-id"})
	s.ErrorIs(err, ErrSessionNotFound)

	_, err = s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-a"})
	s.ErrorIs(err, ErrSessionNotFound)

	ids, err := s.repo.ListActiveSessionIDs(ctx)
	s.Require().NoError(err)
	s.Len(ids, 0)
}

func (s *RedisRepositoryTestSuite) TestDeleteSessionAfterRecordExpired() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))
	s.mr.Del("gamesession:test-session-id")

	// The index entry still gets dropped
	s.Require().NoError(s.repo.DeleteSession(ctx, &DeleteSessionInput{SessionID: "test-session-id"}))

	ids, err := s.repo.ListActiveSessionIDs(ctx)
	s.Require().NoError(err)
	s.Len(ids, 0)
}

func (s *RedisRepositoryTestSuite) TestUnlinkParticipant() {
	ctx := context.Background()
	sess := s.newSession("test-session-id")

	s.Require().NoError(s.repo.CreateSession(ctx, &CreateSessionInput{Session: sess, TTL: time.Hour}))
	s.Require().NoError(s.repo.UnlinkParticipant(ctx, &UnlinkParticipantInput{PlayerID: "player-a"}))

	_, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-a"})
	s.ErrorIs(err, ErrSessionNotFound)

	// The other seat's link is untouched
	got, err := s.repo.GetSessionByParticipant(ctx, &GetSessionByParticipantInput{PlayerID: "player-b"})
	s.Require().NoError(err)
	s.Equal("test-session-id", got.ID)
}
