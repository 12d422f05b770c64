package applications

import "time"

// Identity describes who is acting on an application. UserID is set for
// authenticated callers; guests identify themselves by email.
type Identity struct {
	UserID *int64
	Name   string
	Email  string
	Phone  string
}

// AnswerRequest carries one question's answer in a submit or update call.
type AnswerRequest struct {
	QuestionID        int64   `json:"questionId" binding:"required"`
	TextValue         string  `json:"textValue"`
	SelectedOptionIDs []int64 `json:"selectedOptionIds"`
}

// SubmitRequest creates an application against a form.
type SubmitRequest struct {
	ApplicantName  string          `json:"applicantName" binding:"required,max=100"`
	ApplicantEmail string          `json:"applicantEmail" binding:"required,email"`
	ApplicantPhone string          `json:"applicantPhone"`
	Status         string          `json:"status"`
	Answers        []AnswerRequest `json:"answers"`
}

// UpdateRequest applies partial updates to a DRAFT application. Nil fields
// keep their current value; Status may only move to SUBMITTED here.
type UpdateRequest struct {
	ApplicantName  *string         `json:"applicantName"`
	ApplicantPhone *string         `json:"applicantPhone"`
	Status         *string         `json:"status"`
	Answers        []AnswerRequest `json:"answers"`
	// Email identifies a guest caller for the ownership check.
	Email string `json:"email"`
}

// SetStatusRequest is the admin review action.
type SetStatusRequest struct {
	Status          string  `json:"status" binding:"required"`
	ReviewerComment *string `json:"reviewerComment"`
}

// SelectedOptionView pairs an option id with its display content.
type SelectedOptionView struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// AnswerView is the read projection of one answer.
type AnswerView struct {
	QuestionID      int64                `json:"questionId"`
	QuestionContent string               `json:"questionContent"`
	QuestionType    string               `json:"questionType"`
	TextValue       string               `json:"textValue"`
	SelectedOptions []SelectedOptionView `json:"selectedOptions"`
}

// ListItem is the summary projection for application lists.
type ListItem struct {
	ID             int64      `json:"id"`
	FormID         int64      `json:"formId"`
	FormTitle      string     `json:"formTitle"`
	UserID         *int64     `json:"userId"`
	ApplicantName  string     `json:"applicantName"`
	ApplicantEmail string     `json:"applicantEmail"`
	Status         string     `json:"status"`
	SubmittedAt    *time.Time `json:"submittedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Detail is the full projection including answers.
type Detail struct {
	ID              int64        `json:"id"`
	FormID          int64        `json:"formId"`
	FormTitle       string       `json:"formTitle"`
	UserID          *int64       `json:"userId"`
	ApplicantName   string       `json:"applicantName"`
	ApplicantEmail  string       `json:"applicantEmail"`
	ApplicantPhone  string       `json:"applicantPhone"`
	Status          string       `json:"status"`
	SubmittedAt     *time.Time   `json:"submittedAt"`
	ReviewedAt      *time.Time   `json:"reviewedAt"`
	ReviewerComment string       `json:"reviewerComment"`
	Answers         []AnswerView `json:"answers"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
