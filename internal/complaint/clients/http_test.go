package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	"grievance/pkg/platform/sentinel"
)

func TestPostJSONDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"user":[{"uuid":"acc-1","mobileNumber":"9876543210"}]}`))
	}))
	defer server.Close()

	client := NewIdentity(server.URL)
	identities, err := client.Search(context.Background(), ports.IdentitySearch{MobileNumber: "9876543210"})

	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, "acc-1", identities[0].UUID)
}

func TestPostJSONServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewWorkflow(server.URL)
	_, err := client.Transition(context.Background(), ports.ProcessInstance{BusinessID: "GRV-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestPostJSONConnectionRefusedIsUnavailable(t *testing.T) {
	client := NewIDGen("http://127.0.0.1:1")

	_, err := client.Generate(context.Background(), "pb", "grievance.servicerequestid", "GRV-[SEQ]", 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestPostJSONMalformedBodyIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"user": not-json`))
	}))
	defer server.Close()

	client := NewIdentity(server.URL)
	_, err := client.Create(context.Background(), models.Identity{MobileNumber: "9876543210"})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrDecode)
}

func TestHRFlattensAssignments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"employees":[
			{"uuid":"emp-1","assignments":[{"department":"DEPT_25"}]},
			{"uuid":"emp-2","assignments":[{"department":"DEPT_25"},{"department":"DEPT_3"}]}
		]}`))
	}))
	defer server.Close()

	client := NewHR(server.URL)
	departments, err := client.DepartmentsForAccountIDs(context.Background(), "pb.amritsar", []string{"emp-1", "emp-2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"DEPT_25", "DEPT_25", "DEPT_3"}, departments)
}
