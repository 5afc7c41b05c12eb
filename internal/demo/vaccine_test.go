package demo_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	recordPath   = "/api/private/2021Covid19VaccineRegistration/person/1/record"
	eventPath    = "/v2/vaccineregistration/"
	contactsPath = "/api/v2/contacts.json"
	flowsPath    = "/api/v2/flow_starts.json"
	placesPath   = "/maps/api/place/autocomplete/json"
)

const liverChoices = "1. Every day\n2. A few times a week\n3. Once a week\n4. A few times a month\n5. Rarely\n6. Never"

func vaccineTester(t *testing.T, svc demo.Services) *apptest.Tester {
	return newTester(t, demo.Vaccine(config.Default(), svc))
}

func TestVaccine_NumberedEntry(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetState(demo.StateEatFruits)

	tester.Send("1")

	tester.AssertState(demo.StateEatVegetables)
	tester.AssertAnswer(demo.StateEatFruits, "yes")
	tester.AssertMessage("Do you eat vegetables every day?")
	tester.AssertHelper(domain.HelperButtons, []string{"Yes", "No"})
}

func TestVaccine_InvalidMenuInput(t *testing.T) {
	for _, ussd := range []bool{false, true} {
		tester := vaccineTester(t, demo.Services{})
		if ussd {
			tester.USSD()
		}
		tester.SetState(demo.StateEatLiver)

		tester.Send("invalid")

		tester.AssertState(demo.StateEatLiver)
		tester.AssertNoAnswer(demo.StateEatLiver)
		tester.AssertMessage("Please use numbers from list.\n" + liverChoices)
		tester.AssertMaxLength(160)
	}
}

func TestVaccine_SAIDDecoding(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetAnswer(demo.StateIDType, "rsa_id")
	tester.SetState(demo.StateIDNumber)

	tester.Send("9001010001088")

	tester.AssertAnswer(demo.StateDOBYear, "1990")
	tester.AssertAnswer(demo.StateDOBMonth, "1")
	tester.AssertAnswer(demo.StateDOBDay, "1")
	tester.AssertAnswer(demo.StateGender, "Female")
	tester.AssertState(demo.StateFirstName)
}

func TestVaccine_InvalidSAID(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetAnswer(demo.StateIDType, "rsa_id")
	tester.SetState(demo.StateIDNumber)

	tester.Send("9001010001089")

	tester.AssertState(demo.StateIDNumber)
	tester.AssertNoAnswer(demo.StateIDNumber)
	tester.AssertMessageContains("not a valid SA ID number")
}

func TestVaccine_SAIDUnderAge(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetAnswer(demo.StateIDType, "rsa_id")
	tester.SetState(demo.StateIDNumber)

	// Born 2015-01-01.
	tester.Send("1501010001085")

	tester.AssertInactive()
	tester.AssertMessage("Sorry, you need to be 18 or older to register for a COVID-19 vaccine.")
}

func TestVaccine_OtherDocumentCarryingSAID(t *testing.T) {
	t.Run("confirmed as SA ID", func(t *testing.T) {
		tester := vaccineTester(t, demo.Services{})
		tester.SetAnswer(demo.StateIDType, "passport")
		tester.SetState(demo.StateIDNumber)

		tester.Send("9001010001088")
		tester.AssertState(demo.StateCheckIDType)
		tester.AssertMessageContains("looks like an SA ID number", "9001010001088")

		tester.Send("Yes")
		tester.AssertAnswer(demo.StateIDType, "rsa_id")
		tester.AssertAnswer(demo.StateGender, "Female")
		tester.AssertState(demo.StateFirstName)
	})

	t.Run("kept as passport", func(t *testing.T) {
		tester := vaccineTester(t, demo.Services{})
		tester.SetAnswer(demo.StateIDType, "passport")
		tester.SetState(demo.StateIDNumber)

		tester.Send("9001010001088")
		tester.Send("No")

		tester.AssertAnswer(demo.StateIDType, "passport")
		tester.AssertNoAnswer(demo.StateDOBYear)
		tester.AssertState(demo.StatePassportCountry)
	})

	t.Run("plain passport number", func(t *testing.T) {
		tester := vaccineTester(t, demo.Services{})
		tester.SetAnswer(demo.StateIDType, "refugee")
		tester.SetState(demo.StateIDNumber)

		tester.Send("R123456")

		tester.AssertState(demo.StateDOBYear)
	})
}

func TestVaccine_ManualDateOfBirth(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetState(demo.StateDOBYear)

	tester.Send("1890")
	tester.AssertState(demo.StateDOBYear)

	tester.Send("1992")
	tester.AssertState(demo.StateDOBMonth)

	tester.Send("2")
	tester.AssertState(demo.StateDOBDay)

	tester.Send("30")
	tester.AssertState(demo.StateDOBDay)
	tester.AssertMessageContains("valid DAY")

	tester.Send("29")
	tester.AssertState(demo.StateGender)
	tester.AssertAnswer(demo.StateDOBDay, "29")
}

func TestVaccine_WrongProfileReturnsToIDType(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetAnswer(demo.StateIDType, "rsa_id")
	tester.SetAnswer(demo.StateIDNumber, "9001010001088")
	tester.SetAnswer(demo.StateDOBYear, "1990")
	tester.SetAnswer(demo.StateDOBMonth, "1")
	tester.SetAnswer(demo.StateDOBDay, "1")
	tester.SetAnswer(demo.StateFirstName, "Jane")
	tester.SetState(demo.StateSurname)

	tester.Send("Doe")
	tester.AssertState(demo.StateConfirmProfile)
	tester.AssertMessageContains("Jane Doe", "SA ID number: 9001010001088", "Date of birth: 1990-01-01")

	tester.Send("Wrong")
	tester.AssertState(demo.StateIDType)
	tester.AssertMessageContains("Which type of identification do you have?")
}

func TestVaccine_SuburbLookup(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodGet, placesPath,
		apptest.JSON(map[string]any{
			"status": "OK",
			"predictions": []any{
				map[string]any{"description": "Sea Point, Cape Town", "place_id": "p1"},
				map[string]any{"description": "Sea View, Durban", "place_id": "p2"},
			},
		}),
		apptest.JSON(map[string]any{"status": "ZERO_RESULTS"}),
	)
	cfg := config.Default()
	cfg.PlacesURL = srv.URL
	cfg.PlacesKey = "key"
	tester := vaccineTester(t, services(cfg))
	tester.SetState(demo.StateSuburbSearch)

	tester.Send("sea")
	tester.AssertState(demo.StateSuburb)
	tester.AssertMessage("Please choose the best match for your suburb:")
	tester.AssertHelper(domain.HelperButton, "Suburbs")

	tester.Send("2")
	tester.AssertState(demo.StateMedicalAid)
	tester.AssertAnswer(demo.StateSuburb, "p2")
	tester.AssertMetadata("preferred_location", map[string]any{"value": "p2", "text": "Sea View, Durban"})

	tester.SetState(demo.StateSuburbSearch)
	tester.Send("nowhere")
	tester.AssertState(demo.StateSuburbNotFound)

	tester.Send("Skip")
	tester.AssertState(demo.StateMedicalAid)
	tester.AssertMetadata("preferred_location", map[string]any{"value": "", "text": "nowhere"})

	reqs := srv.Requests(http.MethodGet, placesPath)
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Query.Get("sessiontoken"), reqs[1].Query.Get("sessiontoken"))
	assert.Equal(t, "country:za", reqs[0].Query.Get("components"))
}

// readyToSubmit puts the tester one answer away from submitting to EVDS.
func readyToSubmit(tester *apptest.Tester) {
	tester.SetAnswer(demo.StateTerms, "accept")
	tester.SetAnswer(demo.StateIDType, "rsa_id")
	tester.SetAnswer(demo.StateIDNumber, "9001010001088")
	tester.SetAnswer(demo.StateDOBYear, "1990")
	tester.SetAnswer(demo.StateDOBMonth, "1")
	tester.SetAnswer(demo.StateDOBDay, "1")
	tester.SetAnswer(demo.StateGender, "Female")
	tester.SetAnswer(demo.StateFirstName, "Jane")
	tester.SetAnswer(demo.StateSurname, "Doe")
	tester.SetAnswer(demo.StateMedicalAid, "no")
	tester.SetMetadata("preferred_location", map[string]any{"value": "p1", "text": "Sea Point, Cape Town"})
	tester.SetState(demo.StateVaccinationTime)
}

func registrationConfig(url string) config.Config {
	cfg := config.Default()
	cfg.EVDSURL = url
	cfg.EVDSUsername = "evds"
	cfg.EVDSPassword = "secret"
	cfg.EventStoreURL = url
	cfg.EventStoreToken = "es-token"
	cfg.RapidProURL = url
	cfg.RapidProToken = "rp-token"
	return cfg
}

func TestVaccine_TransientUpstreamFailure(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodPost, recordPath, apptest.Status(http.StatusInternalServerError), apptest.JSON(map[string]any{})).
		On(http.MethodPost, eventPath, apptest.Status(http.StatusCreated)).
		On(http.MethodPost, contactsPath, apptest.JSON(map[string]any{}))
	cfg := registrationConfig(srv.URL)
	tester := newTester(t, demo.Vaccine(cfg, services(cfg)))
	readyToSubmit(tester)

	tester.Send("1")

	tester.AssertMessageContains("You successfully registered")
	tester.AssertSessionEvent(domain.SessionClose)
	tester.AssertInactive()
	tester.AssertMetadata("evds_attempts", 2)
	tester.AssertMetadata("evds_status", http.StatusOK)

	records := srv.Requests(http.MethodPost, recordPath)
	require.Len(t, records, 2)
	var body map[string]any
	require.NoError(t, records[1].JSON(&body))
	assert.Equal(t, "9001010001088", body["iDNumber"])
	assert.Equal(t, "1990-01-01", body["dateOfBirth"])
	assert.Equal(t, "Jane", body["firstName"])
	assert.Equal(t, "Female", body["gender"])
	assert.Equal(t, "27820001001", body["mobileNumber"])
	assert.Equal(t, "morning", body["preferredVaccineScheduleTimeOfDay"])
	assert.Equal(t, "weekday", body["preferredVaccineScheduleTimeOfWeek"])
	assert.Equal(t, map[string]any{"value": "p1", "text": "Sea Point, Cape Town"}, body["preferredVaccineLocation"])
	assert.Equal(t, true, body["termsAndConditionsAccepted"])
	assert.Equal(t, cfg.EVDSSourceID, body["sourceId"])

	events := srv.Requests(http.MethodPost, eventPath)
	require.Len(t, events, 1)
	assert.Equal(t, "Bearer es-token", events[0].Header.Get("Authorization"))
	assert.Len(t, srv.Requests(http.MethodPost, contactsPath), 1)
	assert.Empty(t, srv.Requests(http.MethodPost, flowsPath), "no follow-up flow configured")
}

func TestVaccine_PermanentUpstreamFailure(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, recordPath, apptest.Status(http.StatusInternalServerError))
	cfg := registrationConfig(srv.URL)
	tester := newTester(t, demo.Vaccine(cfg, services(cfg)))
	readyToSubmit(tester)

	tester.Send("1")

	tester.AssertMessage(demo.ApologyText)
	tester.AssertSessionEvent(domain.SessionClose)
	assert.Len(t, srv.Requests(http.MethodPost, recordPath), 3)
	assert.Empty(t, srv.Requests(http.MethodPost, eventPath))
	tester.AssertMetadata("evds_attempts", 3)
	tester.AssertMetadata("evds_status", http.StatusInternalServerError)
}

func TestVaccine_FollowUpFlow(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodPost, recordPath, apptest.JSON(map[string]any{})).
		On(http.MethodPost, eventPath, apptest.Status(http.StatusServiceUnavailable)).
		On(http.MethodPost, contactsPath, apptest.JSON(map[string]any{})).
		On(http.MethodPost, flowsPath, apptest.Status(http.StatusCreated))
	cfg := registrationConfig(srv.URL)
	cfg.RapidProFlow = "flow-uuid"
	tester := newTester(t, demo.Vaccine(cfg, services(cfg)))
	readyToSubmit(tester)

	tester.Send("3")

	tester.AssertMessage(demo.SuccessText)
	assert.Len(t, srv.Requests(http.MethodPost, eventPath), 3, "event store failures do not fail the registration")
	flows := srv.Requests(http.MethodPost, flowsPath)
	require.Len(t, flows, 1)
	var start map[string]any
	require.NoError(t, flows[0].JSON(&start))
	assert.Equal(t, "flow-uuid", start["flow"])
	assert.Equal(t, []any{"whatsapp:27820001001"}, start["urns"])
}

func TestVaccine_UnreadableLocationIsLogged(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, recordPath, apptest.JSON(map[string]any{}))
	cfg := config.Default()
	cfg.EVDSURL = srv.URL
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tester := newTester(t, demo.Vaccine(cfg, demo.NewServices(cfg, upstream.New(), logger)))
	readyToSubmit(tester)
	tester.SetMetadata("preferred_location", "Sea Point")

	tester.Send("1")

	tester.AssertMessage(demo.SuccessText)
	assert.Contains(t, logs.String(), "Unreadable preferred location")
}

func TestVaccine_FullRegistration(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, recordPath, apptest.JSON(map[string]any{}))
	cfg := config.Default()
	cfg.EVDSURL = srv.URL
	tester := newTester(t, demo.Vaccine(cfg, services(cfg)))

	tester.Start()
	tester.AssertState(demo.StateAgeGate)
	tester.AssertMessageContains("Are you 18 years or older?")

	steps := []struct {
		input string
		state string
	}{
		{"yes", demo.StateEatFruits},
		{"yes", demo.StateEatVegetables},
		{"no", demo.StateEatLiver},
		{"6", demo.StateTerms},
		{"accept", demo.StateIDType},
		{"1", demo.StateIDNumber},
		{"9001010001088", demo.StateFirstName},
		{"Jane", demo.StateSurname},
		{"Doe", demo.StateConfirmProfile},
		{"correct", demo.StateSuburbSearch},
		{"Sea Point", demo.StateMedicalAid},
		{"no", demo.StateVaccinationTime},
	}
	for _, step := range steps {
		tester.Send(step.input)
		tester.AssertState(step.state)
	}

	tester.Send("2")
	tester.AssertMessage(demo.SuccessText)
	tester.AssertInactive()

	var body map[string]any
	require.NoError(t, srv.Requests(http.MethodPost, recordPath)[0].JSON(&body))
	assert.Equal(t, map[string]any{"value": "", "text": "Sea Point"}, body["preferredVaccineLocation"])
	assert.Equal(t, "afternoon", body["preferredVaccineScheduleTimeOfDay"])
}

func TestVaccine_NotConfiguredRoutesToApology(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	readyToSubmit(tester)

	tester.Send("1")

	tester.AssertMessage(demo.ApologyText)
}

func TestVaccine_UnderAgeGate(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.Start()

	tester.Send("No")

	tester.AssertInactive()
	tester.AssertMessageContains("18 or older")
}

func TestVaccine_ExitAndTimeout(t *testing.T) {
	tester := vaccineTester(t, demo.Services{})
	tester.SetState(demo.StateFirstName)

	tester.Send("support")
	tester.AssertMessageContains("helpdesk operator")
	tester.AssertHelper(domain.HelperAutomationHandle, true)
	tester.AssertInactive()

	tester.SetState(demo.StateSurname)
	tester.Close()
	tester.AssertMessageContains("We haven't heard from you")
	tester.AssertSessionEvent(domain.SessionClose)
	tester.AssertMetadata(dialogue.MetaResumeState, demo.StateSurname)

	tester.Send("Smith")
	tester.AssertState(demo.StateSurname)
	tester.AssertMessageContains("SURNAME")
}
