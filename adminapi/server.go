package adminapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"roundsettle/application"
	"roundsettle/domain/entities"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Settler runs a settlement sweep on demand
type Settler interface {
	SettleDueRounds(ctx context.Context) (*entities.SweepSummary, error)
}

// Auditor replays an account's ledger
type Auditor interface {
	Audit(ctx context.Context, accountID int64) (*entities.LedgerAudit, error)
}

// Server is the administrative HTTP surface
type Server struct {
	app         *fiber.App
	settler     Settler
	distributor application.Distributor
	auditor     Auditor
}

// NewServer builds the fiber app and registers all routes
func NewServer(settler Settler, distributor application.Distributor, auditor Auditor, jwtSecret string) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "roundsettle-admin",
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
		}),
		settler:     settler,
		distributor: distributor,
		auditor:     auditor,
	}

	s.app.Get("/health", s.health)

	admin := s.app.Group("/admin", RequireAdmin(jwtSecret))
	admin.Post("/rounds/settle", s.settleRounds)
	admin.Post("/rounds/:id/commissions", s.distributeCommissions)
	admin.Get("/accounts/:id/audit", s.auditAccount)

	return s
}

// App exposes the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen(addr string) error {
	log.WithField("addr", addr).Info("Admin API listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return jsonSuccess(c, "ok", nil)
}

func (s *Server) settleRounds(c *fiber.Ctx) error {
	summary, err := s.settler.SettleDueRounds(c.UserContext())
	if err != nil {
		log.WithError(err).Error("Admin settlement sweep failed")
		return jsonError(c, fiber.StatusInternalServerError, "SETTLEMENT_FAILED")
	}

	log.WithFields(log.Fields{
		"admin":   c.Locals("admin_subject"),
		"settled": summary.SettledCount,
		"skipped": summary.SkippedCount,
		"failed":  summary.ErrorCount,
	}).Info("Admin settlement sweep completed")

	return jsonSuccess(c, "Settlement sweep completed", summary)
}

func (s *Server) distributeCommissions(c *fiber.Ctx) error {
	roundID, err := parseID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "INVALID_ROUND_ID")
	}

	result, err := s.distributor.DistributeCommissions(c.UserContext(), roundID)
	switch {
	case errors.Is(err, entities.ErrRoundNotFound):
		return jsonError(c, fiber.StatusNotFound, "ROUND_NOT_FOUND")
	case errors.Is(err, entities.ErrRoundNotSettled):
		return jsonError(c, fiber.StatusConflict, "ROUND_NOT_SETTLED")
	case err != nil:
		log.WithError(err).WithField("round_id", roundID).Error("Admin commission distribution failed")
		return jsonError(c, fiber.StatusInternalServerError, "DISTRIBUTION_FAILED")
	}

	return jsonSuccess(c, "Commissions distributed", result)
}

func (s *Server) auditAccount(c *fiber.Ctx) error {
	accountID, err := parseID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "INVALID_ACCOUNT_ID")
	}

	audit, err := s.auditor.Audit(c.UserContext(), accountID)
	if errors.Is(err, entities.ErrAccountNotFound) {
		return jsonError(c, fiber.StatusNotFound, "ACCOUNT_NOT_FOUND")
	}
	if err != nil {
		log.WithError(err).WithField("account_id", accountID).Error("Admin ledger audit failed")
		return jsonError(c, fiber.StatusInternalServerError, "AUDIT_FAILED")
	}

	return jsonSuccess(c, "Ledger audited", fiber.Map{
		"audit":      audit,
		"consistent": audit.IsConsistent(),
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
