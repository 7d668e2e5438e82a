package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthlyexpenses/internal/core"
)

func TestDraftAddMerges(t *testing.T) {
	var d Draft

	_, err := d.Add(core.Groceries, "", "10,50")
	require.NoError(t, err)
	_, err = d.Add(core.Rent, "ignored", "1200")
	require.NoError(t, err)
	_, err = d.Add(core.Groceries, "", "4.5")
	require.NoError(t, err)

	assert.Equal(t, []core.Entry{
		{Type: core.Groceries, Amount: 15},
		{Type: core.Rent, Amount: 1200},
	}, d.Entries())
}

func TestDraftAddValidation(t *testing.T) {
	tests := []struct {
		name    string
		typ     core.ExpenseType
		subtype string
		amount  string
		wantErr error
	}{
		{"zero amount", core.Rent, "", "0", core.ErrInvalidAmount},
		{"negative amount", core.Rent, "", "-3", core.ErrInvalidAmount},
		{"unknown type", core.ExpenseType("pets"), "", "3", core.ErrUnknownType},
		{"misc without subtype", core.MiscExtra, "  ", "3", core.ErrMissingSubtype},
		{"subtype with comma", core.MiscExtra, "usb,c cable", "10", core.ErrInvalidSubtype},
		{"subtype with newline", core.MiscExtra, "gift\n2024-01,rent,,1", "10", core.ErrInvalidSubtype},
		{"subtype with carriage return", core.MiscExtra, "gift\rx", "10", core.ErrInvalidSubtype},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Draft
			_, err := d.Add(tt.typ, tt.subtype, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, d.Len())
			assert.False(t, CanAdd(tt.typ, tt.subtype, tt.amount))
		})
	}

	var d Draft
	_, err := d.Add(core.Rent, "", "abc")
	assert.Error(t, err)
	assert.True(t, CanAdd(core.MiscExtra, "gift", "2"))
}

func TestDraftEditAndDelete(t *testing.T) {
	var d Draft
	_, _ = d.Add(core.Rent, "", "1200")
	_, _ = d.Add(core.Phone, "", "20")
	_, _ = d.Add(core.MiscExtra, "gift", "10")

	_, err := d.Edit(1, core.Phone, "", "25")
	require.NoError(t, err)
	// Editing into an existing key keeps both rows.
	_, err = d.Edit(2, core.Rent, "", "1")
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{
		{Type: core.Rent, Amount: 1200},
		{Type: core.Phone, Amount: 25},
		{Type: core.Rent, Amount: 1},
	}, d.Entries())

	require.NoError(t, d.Delete(0))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, core.Phone, d.Entries()[0].Type)

	assert.ErrorIs(t, d.Delete(5), ErrIndexOutOfRange)
	_, err = d.Edit(-1, core.Rent, "", "1")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	d.Reset()
	assert.Equal(t, 0, d.Len())
}

func TestDraftCanSubmit(t *testing.T) {
	var d Draft
	assert.False(t, d.CanSubmit("2024-01", true))

	_, _ = d.Add(core.Rent, "", "1")
	assert.True(t, d.CanSubmit("2024-01", true))
	assert.False(t, d.CanSubmit("2024-01", false))
	assert.False(t, d.CanSubmit("", true))
	assert.False(t, d.CanSubmit("2024-13", true))
}

func TestDraftSubmit(t *testing.T) {
	svc, picker := newTestService(t, nil)
	var d Draft
	_, _ = d.Add(core.Rent, "", "1200")

	saved, err := d.Submit(context.Background(), svc, core.MustMonth("2024-02"))
	require.NoError(t, err)
	assert.Len(t, saved.Entries, 1)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, "month,type,subtype,amount\n2024-02,rent,,1200", readFile(t, picker, "home", "2024-02.csv"))

	// An empty draft is rejected and nothing is written.
	_, err = d.Submit(context.Background(), svc, core.MustMonth("2024-03"))
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestDraftSubmitFoldsEditedDuplicates(t *testing.T) {
	svc, picker := newTestService(t, nil)
	var d Draft
	_, _ = d.Add(core.Rent, "", "10")
	_, _ = d.Add(core.Utilities, "", "5")
	_, err := d.Edit(1, core.Rent, "", "20")
	require.NoError(t, err)

	saved, err := d.Submit(context.Background(), svc, core.MustMonth("2024-04"))
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{{Type: core.Rent, Amount: 30}}, saved.Entries)
	assert.Equal(t, "month,type,subtype,amount\n2024-04,rent,,30", readFile(t, picker, "home", "2024-04.csv"))
}
