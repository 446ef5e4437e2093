package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockIdentity struct {
	GetCallerIdentityFunc func(ctx context.Context) (*sts.GetCallerIdentityOutput, error)
	Calls                 int
}

func (m *MockIdentity) GetCallerIdentity(ctx context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	m.Calls++
	return m.GetCallerIdentityFunc(ctx)
}

func TestResolveAccountID(t *testing.T) {
	tests := []struct {
		err        error
		out        *sts.GetCallerIdentityOutput
		name       string
		configured string
		want       string
		wantErr    string
		wantCalls  int
	}{
		{
			name:       "configured account wins",
			configured: "123456789012",
			want:       "123456789012",
			wantCalls:  0,
		},
		{
			name:      "resolved from STS",
			out:       &sts.GetCallerIdentityOutput{Account: aws.String("210987654321")},
			want:      "210987654321",
			wantCalls: 1,
		},
		{
			name:      "STS error",
			err:       errors.New("expired token"),
			wantErr:   "getting caller identity: expired token",
			wantCalls: 1,
		},
		{
			name:      "STS without account",
			out:       &sts.GetCallerIdentityOutput{},
			wantErr:   ErrMissingAccount.Error(),
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockIdentity{
				GetCallerIdentityFunc: func(context.Context) (*sts.GetCallerIdentityOutput, error) {
					return tt.out, tt.err
				},
			}

			got, err := ResolveAccountID(context.Background(), tt.configured, mock)
			assert.Equal(t, tt.wantCalls, mock.Calls)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
