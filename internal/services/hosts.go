package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/paulexconde/eventmatch/internal/models"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenIssuer signs host access tokens.
type TokenIssuer interface {
	Generate(hostID int64, email string) (string, error)
}

type HostInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
}

type AuthResult struct {
	Token string       `json:"token"`
	Host  *models.Host `json:"host"`
}

// Dashboard summarizes a host's events.
type Dashboard struct {
	TotalEvents       int            `json:"total_events"`
	TotalParticipants int            `json:"total_participants"`
	UpcomingEvents    int            `json:"upcoming_events"`
	LatestEvents      []models.Event `json:"latest_events"`
}

type hostPatchDTO struct {
	Name         string     `db:"name"`
	Phone        *string    `db:"phone"`
	Organization *string    `db:"organization"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

func (d *hostPatchDTO) Validate() error {
	ve := fault.NewValidationError()
	if tooLong(d.Name, 128) {
		ve.Add("name", maxLengthMessage(128))
	}
	if d.Phone != nil && tooLong(*d.Phone, 20) {
		ve.Add("phone", maxLengthMessage(20))
	}
	return ve.OrNil()
}

// Host accounts and sign in.
type HostService interface {
	Register(ctx context.Context, in HostInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, hostID int64) (*models.Host, error)
	UpdateProfile(ctx context.Context, hostID int64, in HostInput) (*models.Host, error)
	Dashboard(ctx context.Context, hostID int64) (*Dashboard, error)
}

type hostServiceImpl struct {
	stores *Stores
	tokens TokenIssuer
	now    Clock
}

func NewHostService(stores *Stores, tokens TokenIssuer, now Clock) HostService {
	if now == nil {
		now = utcNow
	}
	return &hostServiceImpl{stores: stores, tokens: tokens, now: now}
}

var errBadCredentials = fault.NewClientError("invalid email or password", fault.ErrUnauthorized)

func (s *hostServiceImpl) Register(ctx context.Context, in HostInput) (*AuthResult, error) {
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		ve := fault.NewValidationError()
		ve.Add("password", fmt.Sprintf("Ensure this value has at least %d characters.", minPasswordLength))
		return nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	host, err := s.stores.Hosts.Create(ctx, &newHostDTO{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Organization: strings.TrimSpace(in.Organization),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, fault.ErrUniqueViolation) {
			return nil, fault.NewClientError("A host with this email already exists.", fault.ErrUniqueViolation)
		}
		return nil, err
	}

	return s.issue(host)
}

func (s *hostServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	query := fmt.Sprintf("SELECT %s FROM hosts WHERE email = ?", s.stores.Hosts.Columns())
	host, err := s.stores.Hosts.Get(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(host.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	return s.issue(host)
}

func (s *hostServiceImpl) issue(host *models.Host) (*AuthResult, error) {
	token, err := s.tokens.Generate(host.ID, host.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, Host: host}, nil
}

func (s *hostServiceImpl) Profile(ctx context.Context, hostID int64) (*models.Host, error) {
	host, err := s.stores.Hosts.GetByID(ctx, hostID)
	if err != nil {
		return nil, notFound("host", err)
	}
	return host, nil
}

func (s *hostServiceImpl) UpdateProfile(ctx context.Context, hostID int64, in HostInput) (*models.Host, error) {
	now := s.now()
	phone := strings.TrimSpace(in.Phone)
	org := strings.TrimSpace(in.Organization)

	host, err := s.stores.Hosts.Update(ctx, hostID, &hostPatchDTO{
		Name:         strings.TrimSpace(in.Name),
		Phone:        &phone,
		Organization: &org,
		UpdatedAt:    &now,
	})
	if err != nil {
		return nil, notFound("host", err)
	}
	return host, nil
}

func (s *hostServiceImpl) Dashboard(ctx context.Context, hostID int64) (*Dashboard, error) {
	db := s.stores.DB
	d := &Dashboard{}

	query := `SELECT
		COUNT(*) AS total_events,
		COALESCE(SUM(CASE WHEN status = ? AND date >= ? THEN 1 ELSE 0 END), 0) AS upcoming_events
		FROM events WHERE host_id = ?`
	var totals struct {
		TotalEvents    int `db:"total_events"`
		UpcomingEvents int `db:"upcoming_events"`
	}
	if err := db.GetContext(ctx, &totals, db.Rebind(query), models.EventPublished, s.now(), hostID); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	d.TotalEvents, d.UpcomingEvents = totals.TotalEvents, totals.UpcomingEvents

	participants := `SELECT COUNT(*) FROM participants p
		JOIN events e ON e.id = p.event_id
		WHERE e.host_id = ? AND p.status = ?`
	if err := db.GetContext(ctx, &d.TotalParticipants, db.Rebind(participants), hostID, models.StatusRegistered); err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}

	latest := fmt.Sprintf("SELECT %s FROM events WHERE host_id = ? ORDER BY created_at DESC, id DESC LIMIT 10", s.stores.Events.Columns())
	events, err := s.stores.Events.Select(ctx, latest, hostID)
	if err != nil {
		return nil, fmt.Errorf("latest events: %w", err)
	}
	d.LatestEvents = events
	return d, nil
}
