package handler

import (
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signUpRequest struct {
	Name        string `json:"name"         validate:"notblank"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required"`
	PhoneNumber string `json:"phone_number"`
	YearGroup   string `json:"year_group"`
	Occupation  string `json:"occupation"`
	Institution string `json:"institution"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

type meResponse struct {
	Account *domain.Account  `json:"account"`
	IsAdmin bool             `json:"is_admin"`
	Profile *domain.Identity `json:"profile"`
}

type profileRequest struct {
	Name        string `json:"name"         validate:"notblank"`
	PhoneNumber string `json:"phone_number"`
	Occupation  string `json:"occupation"`
	Institution string `json:"institution"`
}

// --- Boards ---

type eventRequest struct {
	Title            string `json:"title"             validate:"notblank,max=200"`
	Description      string `json:"description"       validate:"notblank"`
	Date             string `json:"date"              validate:"notblank"`
	Time             string `json:"time"`
	Venue            string `json:"venue"             validate:"notblank"`
	RegistrationLink string `json:"registration_link" validate:"omitempty,url"`
}

type jobRequest struct {
	Title           string `json:"title"            validate:"notblank,max=200"`
	Company         string `json:"company"          validate:"notblank"`
	Description     string `json:"description"      validate:"notblank"`
	Requirements    string `json:"requirements"`
	Location        string `json:"location"         validate:"notblank"`
	Type            string `json:"type"             validate:"omitempty,oneof=full-time part-time contract internship remote"`
	Salary          string `json:"salary"`
	ContactEmail    string `json:"contact_email"    validate:"omitempty,email"`
	ApplicationLink string `json:"application_link" validate:"omitempty,url"`
	Deadline        string `json:"deadline"`
}

type postRequest struct {
	Title    string `json:"title"    validate:"notblank,max=200"`
	Content  string `json:"content"  validate:"notblank"`
	Category string `json:"category" validate:"omitempty,oneof=general career networking memories"`
}

type commentRequest struct {
	Content string `json:"content" validate:"notblank"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// listResponse is a live view annotated for the requesting member.
type listResponse[T any] struct {
	Items   []views.Entry[T] `json:"items"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Version uint64           `json:"version"`
}

// --- Payments ---

type referenceRequest struct {
	Reference string `json:"reference" validate:"notblank"`
}

type donationRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"  validate:"required,email"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

type donationConfirmRequest struct {
	donationRequest
	Reference string `json:"reference" validate:"notblank"`
}

type presetsResponse struct {
	Currency string  `json:"currency"`
	Amounts  []int64 `json:"amounts"`
}

type duesPaymentResponse struct {
	Payment *domain.DuesPayment `json:"payment"`
}

// --- Admin ---

type toggleAdminResponse struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}

type donationsResponse = ports.View[domain.Donation]
