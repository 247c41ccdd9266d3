package visits

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
	"github.com/yungbote/sitevisit-backend/internal/platform/dbctx"
	"github.com/yungbote/sitevisit-backend/internal/platform/logger"
)

var ErrNoContact = errors.New("client needs a name, email or phone")

type CustomerRepo interface {
	// Resolve finds a customer by email then phone, creating one when neither matches.
	Resolve(dbc dbctx.Context, c sitevisit.ClientDetails) (uuid.UUID, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*sitevisit.CustomerRecord, error)
}

type customerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomerRepo(db *gorm.DB, baseLog *logger.Logger) CustomerRepo {
	return &customerRepo{db: db, log: baseLog.With("repo", "CustomerRepo")}
}

func (r *customerRepo) Resolve(dbc dbctx.Context, c sitevisit.ClientDetails) (uuid.UUID, error) {
	name := strings.TrimSpace(c.Name)
	email := strings.ToLower(strings.TrimSpace(c.Email))
	phone := normalizePhone(c.Phone)
	if name == "" && email == "" && phone == "" {
		return uuid.Nil, ErrNoContact
	}

	if id, ok, err := r.lookup(dbc, email, phone); err != nil || ok {
		return id, err
	}

	rec := &sitevisit.CustomerRecord{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			if id, ok, lerr := r.lookup(dbc, email, phone); lerr == nil && ok {
				return id, nil
			}
		}
		return uuid.Nil, err
	}
	r.log.Debug("customer created", "customer_id", rec.ID.String())
	return rec.ID, nil
}

func (r *customerRepo) lookup(dbc dbctx.Context, email, phone string) (uuid.UUID, bool, error) {
	for _, q := range []struct{ col, val string }{{"email", email}, {"phone", phone}} {
		if q.val == "" {
			continue
		}
		var rec sitevisit.CustomerRecord
		err := dbc.DB(r.db).Where(q.col+" = ?", q.val).Order("created_at ASC").First(&rec).Error
		if err == nil {
			return rec.ID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, err
		}
	}
	return uuid.Nil, false, nil
}

func (r *customerRepo) Get(dbc dbctx.Context, id uuid.UUID) (*sitevisit.CustomerRecord, error) {
	var rec sitevisit.CustomerRecord
	if err := dbc.DB(r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func normalizePhone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
