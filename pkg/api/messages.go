package api

// User is a registered account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   Time   `json:"createdAt"`
}

// Member is a user of a profile as seen by the other members.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

// Profile is a personal or shared ledger.
type Profile struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	OwnerID string    `json:"ownerId"`
	Shared  bool      `json:"shared"`
	Balance string    `json:"balance"`
	Members []*Member `json:"members"`
	// CreatedAt is when the profile was created.
	CreatedAt Time `json:"createdAt"`
}

// Category groups outcomes. An empty or zero Limit means no cap.
type Category struct {
	ID        string `json:"id"`
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Limit     string `json:"limit"`
	Spent     string `json:"spent"`
	CreatedAt Time   `json:"createdAt"`
}

type Income struct {
	ID          string `json:"id"`
	ProfileID   string `json:"profileId"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	CreatedAt   Time   `json:"createdAt"`
}

type Outcome struct {
	ID           string   `json:"id"`
	ProfileID    string   `json:"profileId"`
	CategoryID   string   `json:"categoryId"`
	Amount       string   `json:"amount"`
	Description  string   `json:"description,omitempty"`
	PaidBy       string   `json:"paidBy,omitempty"`
	Participants []string `json:"participants,omitempty"`
	CreatedAt    Time     `json:"createdAt"`
}

// Debt says DebtorID owes PaidByID Amount.
type Debt struct {
	ID        string `json:"id"`
	OutcomeID string `json:"outcomeId,omitempty"`
	DebtorID  string `json:"debtorId"`
	PaidByID  string `json:"paidById"`
	Amount    string `json:"amount"`
	CreatedAt Time   `json:"createdAt"`
}

// Auth service

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Profile service

type CreateProfileRequest struct {
	Name   string `json:"name"`
	Shared bool   `json:"shared"`
	// Members are user IDs added besides the caller. Shared profiles only.
	Members []string `json:"members,omitempty"`
}

type CreateProfileResponse struct {
	Profile *Profile `json:"profile"`
}

type ListProfilesResponse struct {
	Profiles []*Profile `json:"profiles"`
}

// AddMemberRequest names the new member by UserID or, when that is empty,
// by Email.
type AddMemberRequest struct {
	ProfileID string `json:"profileId"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
}

type AddMemberResponse struct {
	Profile *Profile `json:"profile"`
}

type CreateCategoryRequest struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
	Limit     string `json:"limit,omitempty"`
}

type CreateCategoryResponse struct {
	Category *Category `json:"category"`
}

type ListCategoriesRequest struct {
	ProfileID string `json:"profileId"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type DeleteCategoryRequest struct {
	CategoryID string `json:"categoryId"`
}

type DeleteCategoryResponse struct{}

// Ledger service

type RecordIncomeRequest struct {
	ProfileID   string `json:"profileId"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	// CreatedAt backdates the income. Defaults to now.
	CreatedAt *Time `json:"createdAt,omitempty"`
}

type RecordIncomeResponse struct {
	Income *Income `json:"income"`
}

// RecordOutcomeRequest files an outcome. An empty CategoryID uses the
// profile's default category; an empty PaidBy means the caller paid.
type RecordOutcomeRequest struct {
	ProfileID    string   `json:"profileId"`
	CategoryID   string   `json:"categoryId,omitempty"`
	Amount       string   `json:"amount"`
	Description  string   `json:"description,omitempty"`
	PaidBy       string   `json:"paidBy,omitempty"`
	Participants []string `json:"participants,omitempty"`
	CreatedAt    *Time    `json:"createdAt,omitempty"`
}

type RecordOutcomeResponse struct {
	Outcome *Outcome `json:"outcome"`
}

type DeleteIncomeRequest struct {
	IncomeID string `json:"incomeId"`
}

type DeleteIncomeResponse struct{}

type DeleteOutcomeRequest struct {
	OutcomeID string `json:"outcomeId"`
}

type DeleteOutcomeResponse struct{}

type GetBalanceRequest struct {
	ProfileID string `json:"profileId"`
}

type GetBalanceResponse struct {
	Balance string `json:"balance"`
}

type GetCategorySummaryRequest struct {
	ProfileID string `json:"profileId"`
}

// GetCategorySummaryResponse maps category IDs to the amount spent.
type GetCategorySummaryResponse struct {
	Spent map[string]string `json:"spent"`
}

// GetDebtSummaryRequest asks for UserID's position, the caller's when empty.
type GetDebtSummaryRequest struct {
	ProfileID string `json:"profileId"`
	UserID    string `json:"userId,omitempty"`
}

type GetDebtSummaryResponse struct {
	ToUser   []*Debt `json:"toUser"`
	FromUser []*Debt `json:"fromUser"`
	// NetTotal is positive when others owe the user.
	NetTotal string            `json:"netTotal"`
	ByMember map[string]string `json:"byMember"`
}

type GetNetDebtRequest struct {
	ProfileID string `json:"profileId"`
	UserA     string `json:"userA"`
	UserB     string `json:"userB"`
	From      *Time  `json:"from,omitempty"`
	To        *Time  `json:"to,omitempty"`
}

// GetNetDebtResponse is positive when A owes B.
type GetNetDebtResponse struct {
	Amount string `json:"amount"`
}

type GetTotalToPayRequest struct {
	ProfileID string `json:"profileId"`
	UserID    string `json:"userId,omitempty"`
	From      *Time  `json:"from,omitempty"`
	To        *Time  `json:"to,omitempty"`
}

type GetTotalToPayResponse struct {
	Total string `json:"total"`
}

type RedistributeRequest struct {
	ProfileID string `json:"profileId"`
}

type RedistributeResponse struct {
	PairsMerged int `json:"pairsMerged"`
	Deleted     int `json:"deleted"`
	Inserted    int `json:"inserted"`
}
