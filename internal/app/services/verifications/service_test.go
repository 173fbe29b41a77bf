package verifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func newService() *Service {
	store := memory.New()
	return New(store, access.New(store, store, map[string]struct{}{"staff": {}}), logger.NewDiscard())
}

func form(refs ...verification.Reference) verification.Submission {
	return verification.Submission{FullName: "Apollos of Alexandria", Statement: "I have led a home group for three years.", References: refs}
}

var (
	priscilla = verification.Reference{Name: "Priscilla", Contact: "pris@example.org", Relationship: "mentor"}
	aquila    = verification.Reference{Name: "Aquila", Contact: "+1 555 0100", Relationship: "elder"}
)

func TestService_SubmitRequiresTwoReferences(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "apollos", form(priscilla))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Submit(ctx, "apollos", form(priscilla, verification.Reference{Name: "No Contact"}))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Submit(ctx, "apollos", form(priscilla, verification.Reference{}, verification.Reference{}))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "blank rows do not count")

	noName := form(priscilla, aquila)
	noName.FullName = " "
	_, err = svc.Submit(ctx, "apollos", noName)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	sub, err := svc.Submit(ctx, "apollos", form(priscilla, aquila))
	require.NoError(t, err)
	assert.Equal(t, verification.StatusSubmitted, sub.Status)
	assert.Len(t, sub.References, 2)

	_, err = svc.Submit(ctx, "apollos", form(priscilla, aquila))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestService_Review(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "apollos", form(priscilla, aquila))
	require.NoError(t, err)

	_, err = svc.Review(ctx, "apollos", sub.ID, true, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	pending, err := svc.ListByStatus(ctx, "staff", verification.StatusSubmitted)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	sub, err = svc.Review(ctx, "staff", sub.ID, true, "references confirmed")
	require.NoError(t, err)
	assert.Equal(t, verification.StatusApproved, sub.Status)
	assert.Equal(t, "staff", sub.ReviewerID)
	require.NotNil(t, sub.ReviewedAt)

	_, err = svc.Review(ctx, "staff", sub.ID, false, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.Get(ctx, "someone", sub.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	got, err := svc.Get(ctx, "apollos", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "references confirmed", got.ReviewNote)

	_, err = svc.Submit(ctx, "apollos", form(priscilla, aquila))
	require.NoError(t, err, "a reviewed submission no longer blocks a new one")

	mine, err := svc.ListMine(ctx, "apollos")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListByStatus(ctx, "staff", verification.Status("lost"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
