package forms

import "time"

// CreateFormRequest creates a form, optionally with inline questions.
type CreateFormRequest struct {
	Title       string                  `json:"title" binding:"required,max=200"`
	Description string                  `json:"description"`
	Status      string                  `json:"status"`
	StartDate   *time.Time              `json:"startDate"`
	EndDate     *time.Time              `json:"endDate"`
	Questions   []CreateQuestionRequest `json:"questions"`
}

// UpdateFormRequest overwrites all mutable form fields.
type UpdateFormRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"required"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// CreateQuestionRequest adds a question, optionally with inline options.
type CreateQuestionRequest struct {
	Type        string                `json:"questionType" binding:"required"`
	Content     string                `json:"content" binding:"required"`
	Required    bool                  `json:"required"`
	Placeholder string                `json:"placeholder"`
	HelpText    string                `json:"helpText"`
	Order       *int                  `json:"questionOrder"`
	Options     []CreateOptionRequest `json:"options"`
}

// UpdateQuestionRequest carries partial question updates; nil fields keep
// their current value.
type UpdateQuestionRequest struct {
	Content     *string `json:"content"`
	Required    *bool   `json:"required"`
	Placeholder *string `json:"placeholder"`
	HelpText    *string `json:"helpText"`
}

// CreateOptionRequest adds one option to a choice-type question.
type CreateOptionRequest struct {
	Content string `json:"content" binding:"required"`
	Order   *int   `json:"optionOrder"`
}

// UpdateOptionRequest carries a partial option update.
type UpdateOptionRequest struct {
	Content *string `json:"content"`
}

// OptionResponse is the wire shape of an option.
type OptionResponse struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	OptionOrder int    `json:"optionOrder"`
}

// QuestionResponse is the wire shape of a question with its options.
type QuestionResponse struct {
	ID            int64            `json:"id"`
	QuestionType  string           `json:"questionType"`
	Content       string           `json:"content"`
	Required      bool             `json:"required"`
	QuestionOrder int              `json:"questionOrder"`
	Placeholder   string           `json:"placeholder,omitempty"`
	HelpText      string           `json:"helpText,omitempty"`
	Options       []OptionResponse `json:"options"`
}

// FormListItem is a summary projection for list endpoints.
type FormListItem struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	QuestionCount    int        `json:"questionCount"`
	ApplicationCount int        `json:"applicationCount"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// FormDetail is the full projection including ordered questions.
type FormDetail struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	StartDate   *time.Time         `json:"startDate"`
	EndDate     *time.Time         `json:"endDate"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func optionResponse(opt Option) OptionResponse {
	return OptionResponse{ID: opt.ID, Content: opt.Content, OptionOrder: opt.Order}
}

func questionResponse(q Question, options []Option) QuestionResponse {
	resp := QuestionResponse{
		ID:            q.ID,
		QuestionType:  q.Type,
		Content:       q.Content,
		Required:      q.Required,
		QuestionOrder: q.Order,
		Placeholder:   q.Placeholder,
		HelpText:      q.HelpText,
		Options:       make([]OptionResponse, 0, len(options)),
	}
	for _, opt := range options {
		resp.Options = append(resp.Options, optionResponse(opt))
	}
	return resp
}
