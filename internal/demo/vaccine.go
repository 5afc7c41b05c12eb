package demo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/eventstore"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/evds"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/rapidpro"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/validate"
)

// Vaccine registration states.
const (
	StateAgeGate         = "state_age_gate"
	StateUnderAge        = "state_under_age"
	StateEatFruits       = "state_eat_fruits"
	StateEatVegetables   = "state_eat_vegetables"
	StateEatLiver        = "state_eat_liver"
	StateTerms           = "state_terms"
	StateNoTerms         = "state_no_terms"
	StateIDType          = "state_identification_type"
	StateIDNumber        = "state_identification_number"
	StateCheckIDType     = "state_check_id_type"
	StateDecodeID        = "state_decode_id"
	StatePassportCountry = "state_passport_country"
	StateDOBYear         = "state_dob_year"
	StateDOBMonth        = "state_dob_month"
	StateDOBDay          = "state_dob_day"
	StateGender          = "state_gender"
	StateFirstName       = "state_first_name"
	StateSurname         = "state_surname"
	StateConfirmProfile  = "state_confirm_profile"
	StateSuburbSearch    = "state_suburb_search"
	StateSuburbLookup    = "state_suburb_lookup"
	StateSuburb          = "state_suburb"
	StateSuburbNotFound  = "state_suburb_not_found"
	StateMedicalAid      = "state_medical_aid"
	StateVaccinationTime = "state_vaccination_time"
	StateSubmit          = "state_submit_to_evds"
	StateSuccess         = "state_success"
	StateError           = "state_error"
)

// Texts scripts and tests share.
const (
	SuccessText = "Congratulations! You successfully registered with the National Department of Health to get a COVID-19 vaccine.\n\nLook out for an SMS with your vaccination date and site."
	ApologyText = "Something went wrong with your registration. Please try again later."
)

// Metadata keys.
const (
	metaSuburbOptions = "suburb_options"
	metaLocation      = "preferred_location"
	metaPlacesSession = "places_session"
	metaEVDSAttempts  = "evds_attempts"
	metaEVDSStatus    = "evds_status"
)

var idLabels = map[string]string{
	evds.IDTypeRSA:      "SA ID number",
	evds.IDTypePassport: "passport number",
	evds.IDTypeAsylum:   "asylum seeker permit number",
	evds.IDTypeRefugee:  "refugee permit number",
}

type vaccine struct {
	cfg config.Config
	svc Services
}

// Vaccine builds the COVID-19 vaccine registration script.
func Vaccine(cfg config.Config, svc Services) *dialogue.Script {
	v := &vaccine{cfg: cfg, svc: svc}
	s := dialogue.NewScript(VaccineScript, StateAgeGate)
	withCommonStates(s)

	s.Handle(StateAgeGate, v.ageGate)
	s.Handle(StateUnderAge, v.underAge)
	s.Handle(StateEatFruits, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Before we register you, please answer a few quick health questions.\n\nDo you eat fruit every day?",
		Choices:  yesNo(StateEatVegetables, StateEatVegetables),
	}}))
	s.Handle(StateEatVegetables, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Do you eat vegetables every day?",
		Choices:  yesNo(StateEatLiver, StateEatLiver),
	}}))
	s.Handle(StateEatLiver, dialogue.Static(&dialogue.Menu{
		Question: "How often do you eat liver?",
		Choices: []domain.Choice{
			domain.NewChoice("every_day", "Every day"),
			domain.NewChoice("few_times_week", "A few times a week"),
			domain.NewChoice("once_week", "Once a week"),
			domain.NewChoice("few_times_month", "A few times a month"),
			domain.NewChoice("rarely", "Rarely"),
			domain.NewChoice("never", "Never"),
		},
		Next: dialogue.To(StateTerms),
	}))
	s.Handle(StateTerms, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Your information is kept private and only used to plan your vaccination.\n\nDo you accept the terms and conditions?",
		Choices: []domain.Choice{
			{Value: "accept", Label: "Accept", Next: StateIDType},
			{Value: "decline", Label: "Decline", Next: StateNoTerms},
		},
	}}))
	s.Handle(StateNoTerms, dialogue.Static(&dialogue.End{
		Text: "You need to accept the terms and conditions to register. Reply at any time to start again.",
	}))
	s.Handle(StateIDType, dialogue.Static(&dialogue.Menu{
		Question: "Which type of identification do you have?",
		Choices: []domain.Choice{
			domain.NewChoice(evds.IDTypeRSA, "SA ID Number"),
			domain.NewChoice(evds.IDTypePassport, "Passport Number"),
			domain.NewChoice(evds.IDTypeAsylum, "Asylum Seeker Permit number"),
			domain.NewChoice(evds.IDTypeRefugee, "Refugee Permit number"),
		},
		Next: dialogue.To(StateIDNumber),
	}))
	s.Handle(StateIDNumber, v.identificationNumber)
	s.Handle(StateCheckIDType, v.checkIDType)
	s.Handle(StateDecodeID, dialogue.Static(&dialogue.Action{Run: v.decodeID}))
	s.Handle(StatePassportCountry, dialogue.Static(&dialogue.Menu{
		Question: "Which country issued your passport?",
		Choices: []domain.Choice{
			domain.NewChoice("ZW", "Zimbabwe"),
			domain.NewChoice("MZ", "Mozambique"),
			domain.NewChoice("MW", "Malawi"),
			domain.NewChoice("NG", "Nigeria"),
			domain.NewChoice("CD", "DRC"),
			domain.NewChoice("SO", "Somalia"),
			domain.NewChoice("other", "Other"),
		},
		Next: dialogue.To(StateDOBYear),
	}))
	s.Handle(StateDOBYear, v.dobYear)
	s.Handle(StateDOBMonth, v.dobMonth)
	s.Handle(StateDOBDay, v.dobDay)
	s.Handle(StateGender, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "What is your gender?",
		Choices: []domain.Choice{
			domain.NewChoice(validate.SexFemale, "Female"),
			domain.NewChoice(validate.SexMale, "Male"),
			domain.NewChoice("Other", "Other"),
		},
		Next: dialogue.To(StateFirstName),
	}}))
	s.Handle(StateFirstName, dialogue.Static(&dialogue.FreeText{
		Question: "Please TYPE your FIRST NAME as it appears in your identification document.",
		Check:    validate.Name("Please TYPE your FIRST NAME."),
		Next:     dialogue.To(StateSurname),
	}))
	s.Handle(StateSurname, dialogue.Static(&dialogue.FreeText{
		Question: "Please TYPE your SURNAME as it appears in your identification document.",
		Check:    validate.Name("Please TYPE your SURNAME."),
		Next:     dialogue.To(StateConfirmProfile),
	}))
	s.Handle(StateConfirmProfile, v.confirmProfile)
	s.Handle(StateSuburbSearch, dialogue.Static(&dialogue.FreeText{
		Question: "Please TYPE the name of the SUBURB where you would like to get your vaccine.",
		Check:    validate.NonEmpty("Please TYPE the name of your suburb."),
		Next:     dialogue.To(StateSuburbLookup),
	}))
	s.Handle(StateSuburbLookup, dialogue.Static(&dialogue.Action{Run: v.suburbLookup}))
	s.Handle(StateSuburb, v.suburb)
	s.Handle(StateSuburbNotFound, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Sorry, we could not find that suburb.",
		Choices: []domain.Choice{
			{Value: "try_again", Label: "Try again", Next: StateSuburbSearch},
			{Value: "skip", Label: "Skip"},
		},
		Next: dialogue.Dynamic(func(_ context.Context, t *dialogue.Turn, _ *domain.Choice) (string, error) {
			t.SetMetadata(metaLocation, map[string]any{"value": "", "text": strings.TrimSpace(t.Answer(StateSuburbSearch))})
			return StateMedicalAid, nil
		}),
	}}))
	s.Handle(StateMedicalAid, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Do you belong to a medical aid?",
		Choices:  yesNo(StateVaccinationTime, StateVaccinationTime),
	}}))
	s.Handle(StateVaccinationTime, dialogue.Static(&dialogue.Menu{
		Question: "When would you prefer to get your vaccine?",
		Choices: []domain.Choice{
			domain.NewChoice("weekday_morning", "Weekday morning"),
			domain.NewChoice("weekday_afternoon", "Weekday afternoon"),
			domain.NewChoice("weekend_morning", "Weekend morning"),
		},
		Next: dialogue.To(StateSubmit),
	}))
	s.Handle(StateSubmit, dialogue.Static(&dialogue.Action{Run: v.submit}))
	s.Handle(StateSuccess, dialogue.Static(&dialogue.End{Text: SuccessText}))
	s.Handle(StateError, dialogue.Static(&dialogue.End{Text: ApologyText}))
	return s
}

func (v *vaccine) ageGate(context.Context, *dialogue.Turn) (dialogue.State, error) {
	return &dialogue.Choice{Menu: dialogue.Menu{
		Question: fmt.Sprintf("Welcome to the official COVID-19 vaccine registration service.\n\nAre you %d years or older?", v.cfg.AgeGateMin),
		Choices:  yesNo(StateEatFruits, StateUnderAge),
	}}, nil
}

func (v *vaccine) underAge(context.Context, *dialogue.Turn) (dialogue.State, error) {
	return &dialogue.End{
		Text: fmt.Sprintf("Sorry, you need to be %d or older to register for a COVID-19 vaccine.", v.cfg.AgeGateMin),
	}, nil
}

func (v *vaccine) identificationNumber(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	idType := t.Answer(StateIDType)
	label := idLabels[idType]
	if label == "" {
		label = "identification number"
	}
	check := validate.NonEmpty(fmt.Sprintf("Please TYPE your %s.", label))
	if idType == evds.IDTypeRSA {
		check = validate.SAIDNumber(t.Now, "Sorry, that is not a valid SA ID number. Please TYPE your 13 digit SA ID number.")
	}
	return &dialogue.FreeText{
		Question: fmt.Sprintf("Please TYPE your %s.", label),
		Check:    check,
		Next: dialogue.Dynamic(func(_ context.Context, t *dialogue.Turn, _ *domain.Choice) (string, error) {
			if idType == evds.IDTypeRSA {
				return StateDecodeID, nil
			}
			// Numbers entered under another document type may still be SA ID numbers.
			if _, err := validate.DecodeSAID(t.Answer(StateIDNumber), t.Now()); err == nil {
				return StateCheckIDType, nil
			}
			return afterIdentity(idType), nil
		}),
	}, nil
}

func afterIdentity(idType string) string {
	if idType == evds.IDTypePassport {
		return StatePassportCountry
	}
	return StateDOBYear
}

func (v *vaccine) checkIDType(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	return &dialogue.Choice{Menu: dialogue.Menu{
		Question: fmt.Sprintf("The number you entered looks like an SA ID number.\n\n%s\n\nIs this an SA ID number?", strings.TrimSpace(t.Answer(StateIDNumber))),
		Choices: []domain.Choice{
			domain.NewChoice("yes", "Yes"),
			domain.NewChoice("no", "No"),
		},
		Next: dialogue.Dynamic(func(_ context.Context, t *dialogue.Turn, c *domain.Choice) (string, error) {
			if c.Value == "yes" {
				t.SetAnswer(StateIDType, evds.IDTypeRSA)
				return StateDecodeID, nil
			}
			return afterIdentity(t.Answer(StateIDType)), nil
		}),
	}}, nil
}

// decodeID fills the birth date and gender answers from the SA ID number.
func (v *vaccine) decodeID(_ context.Context, t *dialogue.Turn) (string, error) {
	id, err := validate.DecodeSAID(t.Answer(StateIDNumber), t.Now())
	if err != nil {
		return StateIDNumber, nil
	}
	dob := id.DateOfBirth
	t.SetAnswer(StateDOBYear, strconv.Itoa(dob.Year()))
	t.SetAnswer(StateDOBMonth, strconv.Itoa(int(dob.Month())))
	t.SetAnswer(StateDOBDay, strconv.Itoa(dob.Day()))
	t.SetAnswer(StateGender, id.Sex)
	if validate.Age(dob, t.Now()) < v.cfg.AgeGateMin {
		return StateUnderAge, nil
	}
	return StateFirstName, nil
}

func (v *vaccine) dobYear(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	return &dialogue.FreeText{
		Question: "Please TYPE the YEAR you were born, for example 1980.",
		Check:    validate.Year(t.Now(), v.cfg.AmbiguousMaxAge, "Please TYPE the YEAR you were born as 4 digits, for example 1980."),
		Next:     dialogue.To(StateDOBMonth),
	}, nil
}

func (v *vaccine) dobMonth(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	year, _ := strconv.Atoi(t.Answer(StateDOBYear))
	return &dialogue.FreeText{
		Question: "Please TYPE the MONTH you were born as a number, for example 1 for January.",
		Check:    validate.Month(year, t.Now(), "Please TYPE a number from 1 to 12 for the MONTH you were born."),
		Next:     dialogue.To(StateDOBDay),
	}, nil
}

func (v *vaccine) dobDay(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	year, _ := strconv.Atoi(t.Answer(StateDOBYear))
	month, _ := strconv.Atoi(strings.TrimSpace(t.Answer(StateDOBMonth)))
	return &dialogue.FreeText{
		Question: "Please TYPE the DAY you were born, for example 24.",
		Check:    validate.DayOfBirth(year, month, t.Now(), "Please TYPE a valid DAY of the month you were born."),
		Next: dialogue.Dynamic(func(_ context.Context, t *dialogue.Turn, _ *domain.Choice) (string, error) {
			if validate.Age(dateOfBirth(t), t.Now()) < v.cfg.AgeGateMin {
				return StateUnderAge, nil
			}
			return StateGender, nil
		}),
	}, nil
}

func dateOfBirth(t *dialogue.Turn) time.Time {
	year, _ := strconv.Atoi(strings.TrimSpace(t.Answer(StateDOBYear)))
	month, _ := strconv.Atoi(strings.TrimSpace(t.Answer(StateDOBMonth)))
	day, _ := strconv.Atoi(strings.TrimSpace(t.Answer(StateDOBDay)))
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (v *vaccine) confirmProfile(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	summary := fmt.Sprintf("Please confirm that the following information is correct:\n\n%s %s\n%s: %s\nDate of birth: %s",
		validate.CleanName(t.Answer(StateFirstName)),
		validate.CleanName(t.Answer(StateSurname)),
		idLabels[t.Answer(StateIDType)],
		strings.TrimSpace(t.Answer(StateIDNumber)),
		dateOfBirth(t).Format("2006-01-02"),
	)
	return &dialogue.Choice{Menu: dialogue.Menu{
		Question: summary,
		Choices: []domain.Choice{
			{Value: "correct", Label: "Correct", Next: StateSuburbSearch},
			{Value: "wrong", Label: "Wrong", Next: StateIDType},
		},
	}}, nil
}

type suburbOption struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// maxSuburbs keeps the suburb list within a WhatsApp list message.
const maxSuburbs = 5

func (v *vaccine) suburbLookup(ctx context.Context, t *dialogue.Turn) (string, error) {
	text := strings.TrimSpace(t.Answer(StateSuburbSearch))
	if v.svc.Places == nil {
		t.SetMetadata(metaLocation, map[string]any{"value": "", "text": text})
		return StateMedicalAid, nil
	}

	session := t.MetadataString(metaPlacesSession)
	if session == "" {
		session = uuid.NewString()
		t.SetMetadata(metaPlacesSession, session)
	}
	preds, err := v.svc.Places.Autocomplete(ctx, text, session)
	if err != nil {
		v.svc.logger().Error("Suburb lookup failed", "addr", t.User().Addr, "err", err)
		return StateError, nil
	}
	if len(preds) == 0 {
		return StateSuburbNotFound, nil
	}

	options := make([]any, 0, maxSuburbs)
	for i, p := range preds {
		if i == maxSuburbs {
			break
		}
		options = append(options, map[string]any{"id": p.PlaceID, "name": p.Description})
	}
	t.SetMetadata(metaSuburbOptions, options)
	return StateSuburb, nil
}

func (v *vaccine) suburb(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	var options []suburbOption
	raw, _ := t.Metadata(metaSuburbOptions)
	if err := mapstructure.WeakDecode(raw, &options); err != nil {
		return nil, fmt.Errorf("failed to decode suburb options: %w", err)
	}

	choices := make([]domain.Choice, 0, len(options)+1)
	for _, o := range options {
		choices = append(choices, domain.NewChoice(o.ID, o.Name))
	}
	choices = append(choices, domain.Choice{Value: "none", Label: "None of these", Next: StateSuburbSearch})

	return &dialogue.List{
		Menu: dialogue.Menu{
			Question: "Please choose the best match for your suburb:",
			Choices:  choices,
			Next: dialogue.Dynamic(func(_ context.Context, t *dialogue.Turn, c *domain.Choice) (string, error) {
				t.SetMetadata(metaLocation, map[string]any{"value": c.Value, "text": c.Label})
				return StateMedicalAid, nil
			}),
		},
		Button: "Suburbs",
	}, nil
}

// submit sends the registration to EVDS and, once accepted, copies it to the event store and RapidPro.
func (v *vaccine) submit(ctx context.Context, t *dialogue.Turn) (string, error) {
	logger := v.svc.logger()
	if v.svc.EVDS == nil {
		logger.Error("EVDS is not configured", "addr", t.User().Addr)
		return StateError, nil
	}

	reg := v.registration(t)

	attempts, status := 0, 0
	evdsCtx := upstream.WithCallObserver(ctx, func(_ context.Context, ev *domain.UpstreamEvent) {
		attempts, status = ev.Attempt, ev.StatusCode
		logger.Info("EVDS registration attempt",
			"addr", t.User().Addr,
			"attempt", ev.Attempt,
			"status", ev.StatusCode,
			"request", string(ev.Request),
			"response", string(ev.Response),
			"err", ev.Err,
		)
	})
	err := v.svc.EVDS.Register(evdsCtx, reg)
	t.SetMetadata(metaEVDSAttempts, attempts)
	t.SetMetadata(metaEVDSStatus, status)
	if err != nil {
		return StateError, nil
	}

	v.copyRegistration(ctx, t, reg)
	return StateSuccess, nil
}

func (v *vaccine) registration(t *dialogue.Turn) evds.Registration {
	var loc evds.Location
	raw, _ := t.Metadata(metaLocation)
	if err := mapstructure.WeakDecode(raw, &loc); err != nil {
		v.svc.logger().Warn("Unreadable preferred location", "addr", t.User().Addr, "err", err)
	}

	week, day, _ := strings.Cut(t.Answer(StateVaccinationTime), "_")

	reg := evds.Registration{
		Gender:              t.Answer(StateGender),
		Surname:             validate.CleanName(t.Answer(StateSurname)),
		FirstName:           validate.CleanName(t.Answer(StateFirstName)),
		DateOfBirth:         dateOfBirth(t).Format("2006-01-02"),
		MobileNumber:        msisdn(t.User().Addr),
		PreferredTimeOfDay:  day,
		PreferredTimeOfWeek: week,
		PreferredLocation:   loc,
		TermsAccepted:       t.Answer(StateTerms) == "accept",
		MedicalAidMember:    t.Answer(StateMedicalAid) == "yes",
		SourceID:            v.cfg.EVDSSourceID,
	}
	reg.SetIdentity(t.Answer(StateIDType), strings.TrimSpace(t.Answer(StateIDNumber)), t.Answer(StatePassportCountry))
	return reg
}

// copyRegistration is best effort: the registration already succeeded.
func (v *vaccine) copyRegistration(ctx context.Context, t *dialogue.Turn, reg evds.Registration) {
	logger := v.svc.logger()
	addr := t.User().Addr

	if v.svc.EventStore != nil {
		err := v.svc.EventStore.Record(ctx, eventstore.Registration{
			MSISDN:            "+" + reg.MobileNumber,
			Source:            v.cfg.VacRegSourceID,
			Gender:            reg.Gender,
			FirstName:         reg.FirstName,
			LastName:          reg.Surname,
			DateOfBirth:       reg.DateOfBirth,
			IDType:            t.Answer(StateIDType),
			IDNumber:          strings.TrimSpace(t.Answer(StateIDNumber)),
			PassportCountry:   reg.PassportCountry,
			PreferredTime:     reg.PreferredTimeOfDay,
			PreferredDate:     reg.PreferredTimeOfWeek,
			PreferredLocation: reg.PreferredLocation.Text,
			MedicalAid:        reg.MedicalAidMember,
			DataSource:        "WhatsApp COVID Vaccine Registration",
		})
		if err != nil {
			logger.Warn("Failed to copy registration to the event store", "addr", addr, "err", err)
		}
	}

	if v.svc.RapidPro != nil {
		urn := rapidpro.URN(reg.MobileNumber)
		if err := v.svc.RapidPro.UpdateContact(ctx, urn, map[string]any{"vaccine_registration": "TRUE"}); err != nil {
			logger.Warn("Failed to update RapidPro contact", "addr", addr, "err", err)
		}
		if v.cfg.RapidProFlow != "" {
			start := rapidpro.FlowStart{Flow: v.cfg.RapidProFlow, URNs: []string{urn}}
			if err := v.svc.RapidPro.StartFlow(ctx, start); err != nil {
				logger.Warn("Failed to start RapidPro follow-up flow", "addr", addr, "err", err)
			}
		}
	}
}
