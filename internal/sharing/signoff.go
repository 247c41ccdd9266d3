package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

var (
	ErrBaselineNotLocked = errors.New("scope baseline has not been locked")
	ErrAlreadySigned     = errors.New("scope has already been signed")
	ErrEmptySignature    = errors.New("signer name and signature are required")
)

type VisitStatusStore interface {
	GetVisit(ctx context.Context, visitID uuid.UUID) (*sitevisit.Visit, error)
	SetStatus(ctx context.Context, visitID uuid.UUID, status sitevisit.Status) error
}

type BaselineReader interface {
	GetBaseline(ctx context.Context, visitID uuid.UUID) (*sitevisit.ScopeBaseline, bool, error)
}

type Signature struct {
	VisitID    uuid.UUID `json:"visit_id"`
	SignerName string    `json:"signer_name"`
	Signature  string    `json:"-"`
	SignedAt   time.Time `json:"signed_at"`
	LockedAt   time.Time `json:"baseline_locked_at"`
}

type SignatureStore interface {
	GetSignature(ctx context.Context, visitID uuid.UUID) (*Signature, bool, error)
	SaveSignature(ctx context.Context, s *Signature) error
}

type ShareLink struct {
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	BaselineLocked bool      `json:"baseline_locked"`
}

type SignRequest struct {
	SignerName string `json:"signer_name"`
	Signature  string `json:"signature"`
}

// Review is what a share link shows the customer before they sign.
type Review struct {
	VisitID   uuid.UUID                 `json:"visit_id"`
	Client    sitevisit.ClientDetails   `json:"client"`
	Property  sitevisit.PropertyDetails `json:"property"`
	Baseline  *sitevisit.ScopeBaseline  `json:"baseline,omitempty"`
	Signature *Signature                `json:"signature,omitempty"`
}

type SignOffService interface {
	Share(ctx context.Context, visitID uuid.UUID) (*ShareLink, error)
	Review(ctx context.Context, token string) (*Review, error)
	Sign(ctx context.Context, token string, req SignRequest) (*Signature, error)
}

type signOffService struct {
	log        *logger.Logger
	tokens     *TokenIssuer
	visits     VisitStatusStore
	baselines  BaselineReader
	signatures SignatureStore
	now        func() time.Time
}

func NewSignOffService(
	log *logger.Logger,
	tokens *TokenIssuer,
	visits VisitStatusStore,
	baselines BaselineReader,
	signatures SignatureStore,
) SignOffService {
	return &signOffService{
		log:        log.With("service", "SignOffService"),
		tokens:     tokens,
		visits:     visits,
		baselines:  baselines,
		signatures: signatures,
		now:        time.Now,
	}
}

// Share works before the baseline is locked so a scope can be previewed; signing cannot.
func (s *signOffService) Share(ctx context.Context, visitID uuid.UUID) (*ShareLink, error) {
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	b, locked, err := s.baselines.GetBaseline(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	var lockedAt *time.Time
	if locked {
		t := b.LockedAt
		lockedAt = &t
	}
	token, exp, err := s.tokens.Issue(visitID, lockedAt)
	if err != nil {
		return nil, err
	}
	if advances(v.Status, sitevisit.StatusScopeSent) {
		if err := s.visits.SetStatus(ctx, visitID, sitevisit.StatusScopeSent); err != nil {
			return nil, fmt.Errorf("mark scope sent: %w", err)
		}
	}
	s.log.Info("scope shared", "visit_id", visitID.String(), "baseline_locked", locked)
	return &ShareLink{Token: token, ExpiresAt: exp, BaselineLocked: locked}, nil
}

// Review always shows the locked baseline, never the live visit, so later edits do not leak
// into what the customer agrees to.
func (s *signOffService) Review(ctx context.Context, token string) (*Review, error) {
	_, visitID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	out := &Review{VisitID: visitID, Client: v.Client, Property: v.Property}
	b, locked, err := s.baselines.GetBaseline(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	if locked {
		out.Baseline = b.Copy()
	}
	sig, signed, err := s.signatures.GetSignature(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load signature: %w", err)
	}
	if signed {
		out.Signature = sig
	}
	return out, nil
}

func (s *signOffService) Sign(ctx context.Context, token string, req SignRequest) (*Signature, error) {
	_, visitID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.SignerName)
	if name == "" || strings.TrimSpace(req.Signature) == "" {
		return nil, ErrEmptySignature
	}
	b, locked, err := s.baselines.GetBaseline(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	if !locked || b == nil {
		return nil, ErrBaselineNotLocked
	}
	if _, exists, err := s.signatures.GetSignature(ctx, visitID); err != nil {
		return nil, fmt.Errorf("load signature: %w", err)
	} else if exists {
		return nil, ErrAlreadySigned
	}
	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}

	sig := &Signature{
		VisitID:    visitID,
		SignerName: name,
		Signature:  req.Signature,
		SignedAt:   s.now().UTC(),
		LockedAt:   b.LockedAt,
	}
	if err := s.signatures.SaveSignature(ctx, sig); err != nil {
		return nil, fmt.Errorf("save signature: %w", err)
	}
	if advances(v.Status, sitevisit.StatusSigned) {
		if err := s.visits.SetStatus(ctx, visitID, sitevisit.StatusSigned); err != nil {
			return nil, fmt.Errorf("mark signed: %w", err)
		}
	}
	s.log.Info("scope signed", "visit_id", visitID.String())
	return sig, nil
}

var statusRank = map[sitevisit.Status]int{
	sitevisit.StatusDraft:     0,
	sitevisit.StatusScopeSent: 1,
	sitevisit.StatusSigned:    2,
	sitevisit.StatusCompleted: 3,
}

// advances reports whether moving from cur to next goes forward in the lifecycle.
func advances(cur, next sitevisit.Status) bool {
	return statusRank[next] > statusRank[cur]
}
