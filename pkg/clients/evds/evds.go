// Package evds submits vaccine registrations to the Electronic Vaccination Data System.
package evds

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "evds"

// Identity document types accepted by EVDS.
const (
	IDTypeRSA      = "rsa_id"
	IDTypePassport = "passport"
	IDTypeAsylum   = "asylum_seeker"
	IDTypeRefugee  = "refugee"
)

// Location is a preferred vaccination site.
type Location struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Registration is the person record EVDS accepts.
type Registration struct {
	Gender                 string   `json:"gender"`
	Surname                string   `json:"surname"`
	FirstName              string   `json:"firstName"`
	DateOfBirth            string   `json:"dateOfBirth"`
	MobileNumber           string   `json:"mobileNumber"`
	PreferredTimeOfDay     string   `json:"preferredVaccineScheduleTimeOfDay"`
	PreferredTimeOfWeek    string   `json:"preferredVaccineScheduleTimeOfWeek"`
	PreferredLocation      Location `json:"preferredVaccineLocation"`
	TermsAccepted          bool     `json:"termsAndConditionsAccepted"`
	IDNumber               string   `json:"iDNumber,omitempty"`
	PassportNumber         string   `json:"passportNumber,omitempty"`
	PassportCountry        string   `json:"passportCountry,omitempty"`
	RefugeeNumber          string   `json:"refugeeNumber,omitempty"`
	AsylumSeekerNumber     string   `json:"asylumSeekerNumber,omitempty"`
	MedicalAidMember       bool     `json:"medicalAidMember"`
	MedicalAidScheme       string   `json:"medicalAidScheme,omitempty"`
	MedicalAidSchemeNumber string   `json:"medicalAidSchemeNumber,omitempty"`
	SourceID               string   `json:"sourceId"`
}

// SetIdentity fills the identity field matching idType.
func (r *Registration) SetIdentity(idType, number, country string) {
	switch idType {
	case IDTypeRSA:
		r.IDNumber = number
	case IDTypePassport:
		r.PassportNumber = number
		r.PassportCountry = country
	case IDTypeRefugee:
		r.RefugeeNumber = number
	default:
		r.AsylumSeekerNumber = number
	}
}

// Client talks to EVDS with HTTP basic auth.
type Client struct {
	up       *upstream.Client
	baseURL  string
	username string
	password string
	dataset  string
	version  string
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the basic auth credentials.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithDataset selects the dataset and record version.
func WithDataset(dataset, version string) Option {
	return func(c *Client) {
		c.dataset = dataset
		c.version = version
	}
}

// New creates a client for the EVDS instance at baseURL.
func New(up *upstream.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		up:      up,
		baseURL: strings.TrimRight(baseURL, "/"),
		dataset: "2021Covid19VaccineRegistration",
		version: "1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register submits a registration.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	_, err := c.up.Do(ctx, upstream.Request{
		Service:  service,
		Method:   http.MethodPost,
		URL:      fmt.Sprintf("%s/api/private/%s/person/%s/record", c.baseURL, c.dataset, c.version),
		Body:     reg,
		User:     c.username,
		Password: c.password,
	})
	return err
}
