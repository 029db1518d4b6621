package handler

import (
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
)

// --- Request → Service input ---

func toSignUpInput(r signUpRequest) ports.SignUpInput {
	return ports.SignUpInput{
		Name:        r.Name,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		YearGroup:   r.YearGroup,
		Occupation:  r.Occupation,
		Institution: r.Institution,
		Password:    r.Password,
	}
}

func toProfileInput(r profileRequest) ports.ProfileInput {
	return ports.ProfileInput{
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Occupation:  r.Occupation,
		Institution: r.Institution,
	}
}

func toEventInput(r eventRequest) ports.EventInput {
	return ports.EventInput{
		Title:            r.Title,
		Description:      r.Description,
		Date:             r.Date,
		Time:             r.Time,
		Venue:            r.Venue,
		RegistrationLink: r.RegistrationLink,
	}
}

func toJobInput(r jobRequest) ports.JobInput {
	return ports.JobInput{
		Title:           r.Title,
		Company:         r.Company,
		Description:     r.Description,
		Requirements:    r.Requirements,
		Location:        r.Location,
		Type:            r.Type,
		Salary:          r.Salary,
		ContactEmail:    r.ContactEmail,
		ApplicationLink: r.ApplicationLink,
		Deadline:        r.Deadline,
	}
}

func toPostInput(r postRequest) ports.PostInput {
	return ports.PostInput{Title: r.Title, Content: r.Content, Category: r.Category}
}

func toDonationInput(r donationRequest) ports.DonationInput {
	return ports.DonationInput{Name: r.Name, Email: r.Email, AmountMinor: r.Amount}
}

// --- View → Response ---

func toListResponse[T views.Owned](v ports.View[T], actor domain.Actor) listResponse[T] {
	return listResponse[T]{
		Items:   views.Annotate(v.Items, actor),
		Loading: v.Loading,
		Error:   v.Error,
		Version: v.Version,
	}
}
