package evds_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/evds"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordPath = "/api/private/2021Covid19VaccineRegistration/person/1/record"

func TestRegister(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, recordPath, apptest.Status(http.StatusInternalServerError), apptest.JSON(map[string]any{}))
	client := evds.New(upstream.New(), srv.URL+"/", evds.WithCredentials("user", "pass"))

	reg := evds.Registration{FirstName: "Jane", Surname: "Doe", SourceID: "src"}
	reg.SetIdentity(evds.IDTypeRSA, "9001010001088", "")
	require.NoError(t, client.Register(context.Background(), reg))

	reqs := srv.Requests(http.MethodPost, recordPath)
	require.Len(t, reqs, 2)
	user, pass, ok := (&http.Request{Header: reqs[1].Header}).BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "user", user)
	assert.Equal(t, "pass", pass)

	var body map[string]any
	require.NoError(t, reqs[1].JSON(&body))
	assert.Equal(t, "9001010001088", body["iDNumber"])
	assert.Equal(t, "Jane", body["firstName"])
	assert.NotContains(t, body, "passportNumber")
}

func TestRegister_PermanentFailure(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, "/api/private/ds/person/2/record", apptest.Status(http.StatusBadGateway))
	client := evds.New(upstream.New(), srv.URL, evds.WithDataset("ds", "2"))

	err := client.Register(context.Background(), evds.Registration{})

	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, 3, uerr.Attempts)
	assert.Equal(t, http.StatusBadGateway, uerr.StatusCode)
}

func TestSetIdentity(t *testing.T) {
	var reg evds.Registration
	reg.SetIdentity(evds.IDTypePassport, "A123", "ZW")
	assert.Equal(t, "A123", reg.PassportNumber)
	assert.Equal(t, "ZW", reg.PassportCountry)

	reg = evds.Registration{}
	reg.SetIdentity(evds.IDTypeAsylum, "AS1", "")
	assert.Equal(t, "AS1", reg.AsylumSeekerNumber)
}
