package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	assert.Equal(t, []Permission{ACCESS_FINE_LOCATION}, Required(32))
	assert.Equal(t, []Permission{ACCESS_FINE_LOCATION, POST_NOTIFICATIONS}, Required(33))
}

func TestEnsureGranted(t *testing.T) {
	testCases := []struct {
		name        string
		granted     []string
		sdk         int
		wantMissing []Permission
		wantErr     bool
	}{
		{
			name:    "all granted",
			granted: []string{"ACCESS_FINE_LOCATION", "POST_NOTIFICATIONS"},
			sdk:     34,
		},
		{
			name:        "notifications missing is not fatal",
			granted:     []string{"android.permission.ACCESS_FINE_LOCATION"},
			sdk:         34,
			wantMissing: []Permission{POST_NOTIFICATIONS},
		},
		{
			name:    "old platform needs no notification permission",
			granted: []string{"access_fine_location"},
			sdk:     30,
		},
		{
			name:        "fine location missing",
			granted:     []string{"POST_NOTIFICATIONS"},
			sdk:         34,
			wantMissing: []Permission{ACCESS_FINE_LOCATION},
			wantErr:     true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			missing, err := EnsureGranted(NewStaticChecker(tt.granted...), tt.sdk)
			assert.Equal(t, tt.wantMissing, missing)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPermissionDenied)
				return
			}
			require.NoError(t, err)
		})
	}
}
