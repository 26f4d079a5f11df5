package authz

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cedar-policy/cedar-go"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/repository"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

//go:embed policies/*.cedar
var embeddedPolicies embed.FS

// Operation is an action a caller attempts on projects.
type Operation string

const (
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Cedar action ids.
const (
	actionListAll = "project:list_all"
	actionListOwn = "project:list_own"
)

const (
	entityUser     = cedar.EntityType("User")
	entityProject  = cedar.EntityType("Project")
	entityRegistry = cedar.EntityType("Registry")
)

// Actor is a resolved caller.
type Actor struct {
	ID    string
	Email string
	Name  *string
	Role  domain.Role
}

// Scope restricts which records a listing may return. A nil OwnerID means unrestricted.
type Scope struct {
	OwnerID *string
}

// Decision is the outcome of a single policy evaluation.
type Decision struct {
	Allowed  bool
	Scope    Scope
	Reason   string
	PolicyID string
}

// Policy decides which projects an actor may see or change.
type Policy struct {
	policies      *cedar.PolicySet
	source        string
	users         repository.UserRepository
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// NewPolicy loads the Cedar policy set selected by cfg.
func NewPolicy(cfg config.AuthzConfig, users repository.UserRepository, logger *zap.Logger) (*Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	source, data, err := loadPolicy(cfg)
	if err != nil {
		return nil, err
	}
	ps, err := cedar.NewPolicySetFromBytes(source, data)
	if err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", source, err)
	}

	return &Policy{
		policies:      ps,
		source:        source,
		users:         users,
		lookupTimeout: cfg.LookupTimeout(),
		logger:        logger,
	}, nil
}

func loadPolicy(cfg config.AuthzConfig) (string, []byte, error) {
	if cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return "", nil, fmt.Errorf("read policy file: %w", err)
		}
		return cfg.PolicyFile, data, nil
	}

	name := "policies/owner.cedar"
	if cfg.RecordPolicy == config.RecordPolicyOpen {
		name = "policies/open.cedar"
	}
	data, err := embeddedPolicies.ReadFile(name)
	if err != nil {
		return "", nil, fmt.Errorf("read embedded policy: %w", err)
	}
	return name, data, nil
}

// Source names the loaded policy.
func (p *Policy) Source() string {
	return p.source
}

// ResolveActor loads the user behind identity under a bounded deadline.
// A user that no longer exists is an authentication failure.
func (p *Policy) ResolveActor(ctx context.Context, identity *domain.Identity) (*Actor, error) {
	if identity == nil || identity.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	defer cancel()

	user, err := p.users.GetByID(lookupCtx, identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.WrapUnauthorized("authentication required", err)
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("resolve actor: %w", err))
	}

	return &Actor{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

// CanAccess evaluates op for actor. For OpList the decision carries the owner
// scope; for record operations targetOwner is the creator of the located record.
func (p *Policy) CanAccess(ctx context.Context, actor *Actor, op Operation, targetOwner *string) Decision {
	if actor == nil {
		return Decision{Reason: "no actor"}
	}

	if op == OpList {
		if d := p.evaluate(actor, actionListAll, nil); d.Allowed {
			return d
		}
		d := p.evaluate(actor, actionListOwn, nil)
		if d.Allowed {
			owner := actor.ID
			d.Scope = Scope{OwnerID: &owner}
		}
		return d
	}

	return p.evaluate(actor, "project:"+string(op), targetOwner)
}

func (p *Policy) evaluate(actor *Actor, action string, owner *string) Decision {
	start := time.Now()
	entities, req := buildRequest(actor, action, owner)

	decision, diag := cedar.Authorize(p.policies, entities, req)

	result := Decision{Allowed: decision == cedar.Allow}
	if len(diag.Reasons) > 0 {
		result.PolicyID = string(diag.Reasons[0].PolicyID)
	}
	if result.Allowed {
		result.Reason = "access permitted"
	} else {
		result.Reason = "no matching permit policy"
	}

	fields := []zap.Field{
		zap.String("principal", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("action", action),
		zap.Bool("allowed", result.Allowed),
		zap.String("policy_id", result.PolicyID),
		zap.Duration("duration", time.Since(start)),
	}
	if owner != nil {
		fields = append(fields, zap.String("owner", *owner))
	}
	if ce := p.logger.Check(zap.DebugLevel, "authorization decision"); ce != nil {
		ce.Write(fields...)
	}
	for _, e := range diag.Errors {
		p.logger.Error("policy evaluation error",
			zap.String("policy", string(e.PolicyID)),
			zap.String("error", e.Message),
		)
	}
	return result
}

func buildRequest(actor *Actor, action string, owner *string) (cedar.EntityMap, cedar.Request) {
	principalUID := cedar.NewEntityUID(entityUser, cedar.String(actor.ID))
	entities := cedar.EntityMap{
		principalUID: cedar.Entity{
			UID:     principalUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"role": cedar.String(string(actor.Role)),
			}),
		},
	}

	var resourceUID cedar.EntityUID
	if owner != nil {
		resourceUID = cedar.NewEntityUID(entityProject, cedar.String("record"))
		entities[resourceUID] = cedar.Entity{
			UID:     resourceUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"owner": cedar.NewEntityUID(entityUser, cedar.String(*owner)),
			}),
		}
	} else {
		resourceUID = cedar.NewEntityUID(entityRegistry, cedar.String("projects"))
		entities[resourceUID] = cedar.Entity{
			UID:        resourceUID,
			Parents:    cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{}),
		}
	}

	return entities, cedar.Request{
		Principal: principalUID,
		Action:    cedar.NewEntityUID("Action", cedar.String(action)),
		Resource:  resourceUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}
}
