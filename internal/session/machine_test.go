package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

func newTestMachine(t *testing.T) (*Machine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewMachine(New(), st, logging.New("error")), st
}

func TestStagesAdvanceForwardOnly(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t)

	require.NoError(t, m.CollectBasicInfo(ctx, "John Smith", "03/15/1985"))
	assert.Equal(t, StageBasicInfo, m.Session().Stage)

	require.NoError(t, m.CollectInsurance(ctx, "Blue Cross", "BC123456"))
	assert.Equal(t, StageInsurance, m.Session().Stage)

	require.NoError(t, m.CollectReferral(ctx, true, "Dr. Adams"))
	assert.Equal(t, StageReferral, m.Session().Stage)

	require.NoError(t, m.CollectComplaint(ctx, "chest pain"))
	assert.Equal(t, StageComplaint, m.Session().Stage)

	require.NoError(t, m.CollectAddress(ctx, "123 Main St, Springfield"))
	assert.Equal(t, StageAddress, m.Session().Stage)

	require.NoError(t, m.CollectPhone(ctx, "555-123-4567"))
	assert.Equal(t, StagePhone, m.Session().Stage)

	require.NoError(t, m.CollectEmail(ctx, "John@Example.com"))
	assert.Equal(t, StageContact, m.Session().Stage)
	assert.Equal(t, "john@example.com", m.Session().Email)
	assert.Equal(t, "(555) 123-4567", m.Session().Phone)

	// Re-collecting an earlier field must not rewind the stage.
	require.NoError(t, m.CollectInsurance(ctx, "Aetna", "AE9"))
	assert.Equal(t, StageContact, m.Session().Stage)
	assert.Equal(t, "Aetna", m.Session().InsuranceProvider)
}

func TestCollectRejectsEmptyRequiredValues(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t)

	var verr *ValidationError
	err := m.CollectBasicInfo(ctx, "   ", "03/15/1985")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, StageInitial, m.Session().Stage)

	err = m.CollectComplaint(ctx, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StageInitial, m.Session().Stage)
}

func TestConfirmTrueRegistersOnce(t *testing.T) {
	ctx := context.Background()
	m, st := newTestMachine(t)

	require.NoError(t, m.CollectBasicInfo(ctx, "John Smith", "03/15/1985"))
	require.NoError(t, m.CollectInsurance(ctx, "Blue Cross", "BC123456"))
	require.NoError(t, m.Confirm(ctx, true))

	sess := m.Session()
	assert.True(t, sess.IsConfirmed)
	assert.True(t, sess.IsRegistered)
	assert.Equal(t, StageComplete, sess.Stage)
	require.NotZero(t, sess.DatabasePatientID)

	p, err := st.GetPatient(ctx, sess.DatabasePatientID)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", p.Name)
	assert.Equal(t, 1985, p.DateOfBirth.Year())

	// A second confirmation is a no-op: same ID, no duplicate row.
	firstID := sess.DatabasePatientID
	require.NoError(t, m.Confirm(ctx, true))
	assert.Equal(t, firstID, sess.DatabasePatientID)
}

func TestConfirmFalseResetsOnlyIdentityFields(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t)

	require.NoError(t, m.CollectBasicInfo(ctx, "Jon Smyth", "03/15/1985"))
	require.NoError(t, m.CollectInsurance(ctx, "Blue Cross", "BC123456"))
	require.NoError(t, m.CollectComplaint(ctx, "chest pain"))

	require.NoError(t, m.Confirm(ctx, false))

	sess := m.Session()
	assert.Empty(t, sess.PatientName)
	assert.Empty(t, sess.DateOfBirth)
	assert.False(t, sess.IsConfirmed)

	// Everything else survives the reset, including the stage.
	assert.Equal(t, StageComplaint, sess.Stage)
	assert.Equal(t, "Blue Cross", sess.InsuranceProvider)
	assert.Equal(t, "BC123456", sess.InsuranceID)
	assert.Equal(t, "chest pain", sess.MedicalComplaint)
}

func TestConfirmAfterCorrectionUpdatesExistingPatient(t *testing.T) {
	ctx := context.Background()
	m, st := newTestMachine(t)

	require.NoError(t, m.CollectBasicInfo(ctx, "Jon Smyth", "03/15/1985"))
	require.NoError(t, m.Confirm(ctx, true))
	id := m.Session().DatabasePatientID
	require.NotZero(t, id)

	require.NoError(t, m.Confirm(ctx, false))
	require.NoError(t, m.CollectBasicInfo(ctx, "John Smith", "03/15/1985"))
	require.NoError(t, m.Confirm(ctx, true))

	assert.Equal(t, id, m.Session().DatabasePatientID)
	p, err := st.GetPatient(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", p.Name)
}

func TestUpdateFieldAllowList(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(t)
	require.NoError(t, m.CollectBasicInfo(ctx, "John Smith", "03/15/1985"))

	require.NoError(t, m.UpdateField(ctx, "phone", "555 987 6543"))
	assert.Equal(t, "(555) 987-6543", m.Session().Phone)
	// Corrections never advance the stage.
	assert.Equal(t, StageBasicInfo, m.Session().Stage)

	require.NoError(t, m.UpdateField(ctx, "referred_physician", "Dr. Lee"))
	assert.True(t, m.Session().HasReferral)

	var uerr *UnknownFieldError
	err := m.UpdateField(ctx, "favorite_color", "blue")
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "favorite_color", uerr.Field)

	var verr *ValidationError
	err = m.UpdateField(ctx, "name", "  ")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "John Smith", m.Session().PatientName)
}

func TestParseDateOfBirth(t *testing.T) {
	for _, raw := range []string{"03/15/1985", "3/15/1985", "1985-03-15", "March 15, 1985", "March 15 1985", "03-15-1985"} {
		dob, ok := ParseDateOfBirth(raw)
		require.True(t, ok, raw)
		assert.Equal(t, 1985, dob.Year(), raw)
		assert.Equal(t, 15, dob.Day(), raw)
	}
	_, ok := ParseDateOfBirth("March 1985")
	assert.False(t, ok)
	_, ok = ParseDateOfBirth("")
	assert.False(t, ok)
}
