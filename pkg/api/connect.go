package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Fully-qualified service names. Each service is mounted under "/<name>/".
const (
	AuthServiceName    = "splitledger.v1.AuthService"
	ProfileServiceName = "splitledger.v1.ProfileService"
	LedgerServiceName  = "splitledger.v1.LedgerService"
)

// Procedure paths, used as connect.Spec.Procedure and in metrics labels.
const (
	AuthServiceRegisterProcedure       = "/splitledger.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/splitledger.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/splitledger.v1.AuthService/GetCurrentUser"

	ProfileServiceCreateProfileProcedure  = "/splitledger.v1.ProfileService/CreateProfile"
	ProfileServiceListProfilesProcedure   = "/splitledger.v1.ProfileService/ListProfiles"
	ProfileServiceAddMemberProcedure      = "/splitledger.v1.ProfileService/AddMember"
	ProfileServiceCreateCategoryProcedure = "/splitledger.v1.ProfileService/CreateCategory"
	ProfileServiceListCategoriesProcedure = "/splitledger.v1.ProfileService/ListCategories"
	ProfileServiceDeleteCategoryProcedure = "/splitledger.v1.ProfileService/DeleteCategory"

	LedgerServiceRecordIncomeProcedure       = "/splitledger.v1.LedgerService/RecordIncome"
	LedgerServiceRecordOutcomeProcedure      = "/splitledger.v1.LedgerService/RecordOutcome"
	LedgerServiceDeleteIncomeProcedure       = "/splitledger.v1.LedgerService/DeleteIncome"
	LedgerServiceDeleteOutcomeProcedure      = "/splitledger.v1.LedgerService/DeleteOutcome"
	LedgerServiceGetBalanceProcedure         = "/splitledger.v1.LedgerService/GetBalance"
	LedgerServiceGetCategorySummaryProcedure = "/splitledger.v1.LedgerService/GetCategorySummary"
	LedgerServiceGetDebtSummaryProcedure     = "/splitledger.v1.LedgerService/GetDebtSummary"
	LedgerServiceGetNetDebtProcedure         = "/splitledger.v1.LedgerService/GetNetDebt"
	LedgerServiceGetTotalToPayProcedure      = "/splitledger.v1.LedgerService/GetTotalToPay"
	LedgerServiceRedistributeProcedure       = "/splitledger.v1.LedgerService/Redistribute"
)

// AuthServiceHandler is implemented by the server side of AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[GetCurrentUserResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec)}, opts...)
	register := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	getCurrentUser := connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...)
	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			register.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceGetCurrentUserProcedure:
			getCurrentUser.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// AuthServiceClient is a client for AuthService.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[GetCurrentUserResponse], error)
}

// NewAuthServiceClient returns a client for the AuthService served at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &authServiceClient{
		register: connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login: connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		getCurrentUser: connect.NewClient[emptypb.Empty, GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
	}
}

type authServiceClient struct {
	register *connect.Client[RegisterRequest, RegisterResponse]
	login *connect.Client[LoginRequest, LoginResponse]
	getCurrentUser *connect.Client[emptypb.Empty, GetCurrentUserResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

// ProfileServiceHandler is implemented by the server side of ProfileService.
type ProfileServiceHandler interface {
	CreateProfile(context.Context, *connect.Request[CreateProfileRequest]) (*connect.Response[CreateProfileResponse], error)
	ListProfiles(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListProfilesResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	CreateCategory(context.Context, *connect.Request[CreateCategoryRequest]) (*connect.Response[CreateCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[ListCategoriesRequest]) (*connect.Response[ListCategoriesResponse], error)
	DeleteCategory(context.Context, *connect.Request[DeleteCategoryRequest]) (*connect.Response[DeleteCategoryResponse], error)
}

// NewProfileServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewProfileServiceHandler(svc ProfileServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec)}, opts...)
	createProfile := connect.NewUnaryHandler(ProfileServiceCreateProfileProcedure, svc.CreateProfile, opts...)
	listProfiles := connect.NewUnaryHandler(ProfileServiceListProfilesProcedure, svc.ListProfiles, opts...)
	addMember := connect.NewUnaryHandler(ProfileServiceAddMemberProcedure, svc.AddMember, opts...)
	createCategory := connect.NewUnaryHandler(ProfileServiceCreateCategoryProcedure, svc.CreateCategory, opts...)
	listCategories := connect.NewUnaryHandler(ProfileServiceListCategoriesProcedure, svc.ListCategories, opts...)
	deleteCategory := connect.NewUnaryHandler(ProfileServiceDeleteCategoryProcedure, svc.DeleteCategory, opts...)
	return "/" + ProfileServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProfileServiceCreateProfileProcedure:
			createProfile.ServeHTTP(w, r)
		case ProfileServiceListProfilesProcedure:
			listProfiles.ServeHTTP(w, r)
		case ProfileServiceAddMemberProcedure:
			addMember.ServeHTTP(w, r)
		case ProfileServiceCreateCategoryProcedure:
			createCategory.ServeHTTP(w, r)
		case ProfileServiceListCategoriesProcedure:
			listCategories.ServeHTTP(w, r)
		case ProfileServiceDeleteCategoryProcedure:
			deleteCategory.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ProfileServiceClient is a client for ProfileService.
type ProfileServiceClient interface {
	CreateProfile(context.Context, *connect.Request[CreateProfileRequest]) (*connect.Response[CreateProfileResponse], error)
	ListProfiles(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListProfilesResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	CreateCategory(context.Context, *connect.Request[CreateCategoryRequest]) (*connect.Response[CreateCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[ListCategoriesRequest]) (*connect.Response[ListCategoriesResponse], error)
	DeleteCategory(context.Context, *connect.Request[DeleteCategoryRequest]) (*connect.Response[DeleteCategoryResponse], error)
}

// NewProfileServiceClient returns a client for the ProfileService served at baseURL.
func NewProfileServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ProfileServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &profileServiceClient{
		createProfile: connect.NewClient[CreateProfileRequest, CreateProfileResponse](httpClient, baseURL+ProfileServiceCreateProfileProcedure, opts...),
		listProfiles: connect.NewClient[emptypb.Empty, ListProfilesResponse](httpClient, baseURL+ProfileServiceListProfilesProcedure, opts...),
		addMember: connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+ProfileServiceAddMemberProcedure, opts...),
		createCategory: connect.NewClient[CreateCategoryRequest, CreateCategoryResponse](httpClient, baseURL+ProfileServiceCreateCategoryProcedure, opts...),
		listCategories: connect.NewClient[ListCategoriesRequest, ListCategoriesResponse](httpClient, baseURL+ProfileServiceListCategoriesProcedure, opts...),
		deleteCategory: connect.NewClient[DeleteCategoryRequest, DeleteCategoryResponse](httpClient, baseURL+ProfileServiceDeleteCategoryProcedure, opts...),
	}
}

type profileServiceClient struct {
	createProfile *connect.Client[CreateProfileRequest, CreateProfileResponse]
	listProfiles *connect.Client[emptypb.Empty, ListProfilesResponse]
	addMember *connect.Client[AddMemberRequest, AddMemberResponse]
	createCategory *connect.Client[CreateCategoryRequest, CreateCategoryResponse]
	listCategories *connect.Client[ListCategoriesRequest, ListCategoriesResponse]
	deleteCategory *connect.Client[DeleteCategoryRequest, DeleteCategoryResponse]
}

func (c *profileServiceClient) CreateProfile(ctx context.Context, req *connect.Request[CreateProfileRequest]) (*connect.Response[CreateProfileResponse], error) {
	return c.createProfile.CallUnary(ctx, req)
}

func (c *profileServiceClient) ListProfiles(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[ListProfilesResponse], error) {
	return c.listProfiles.CallUnary(ctx, req)
}

func (c *profileServiceClient) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *profileServiceClient) CreateCategory(ctx context.Context, req *connect.Request[CreateCategoryRequest]) (*connect.Response[CreateCategoryResponse], error) {
	return c.createCategory.CallUnary(ctx, req)
}

func (c *profileServiceClient) ListCategories(ctx context.Context, req *connect.Request[ListCategoriesRequest]) (*connect.Response[ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}

func (c *profileServiceClient) DeleteCategory(ctx context.Context, req *connect.Request[DeleteCategoryRequest]) (*connect.Response[DeleteCategoryResponse], error) {
	return c.deleteCategory.CallUnary(ctx, req)
}

// LedgerServiceHandler is implemented by the server side of LedgerService.
type LedgerServiceHandler interface {
	RecordIncome(context.Context, *connect.Request[RecordIncomeRequest]) (*connect.Response[RecordIncomeResponse], error)
	RecordOutcome(context.Context, *connect.Request[RecordOutcomeRequest]) (*connect.Response[RecordOutcomeResponse], error)
	DeleteIncome(context.Context, *connect.Request[DeleteIncomeRequest]) (*connect.Response[DeleteIncomeResponse], error)
	DeleteOutcome(context.Context, *connect.Request[DeleteOutcomeRequest]) (*connect.Response[DeleteOutcomeResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	GetCategorySummary(context.Context, *connect.Request[GetCategorySummaryRequest]) (*connect.Response[GetCategorySummaryResponse], error)
	GetDebtSummary(context.Context, *connect.Request[GetDebtSummaryRequest]) (*connect.Response[GetDebtSummaryResponse], error)
	GetNetDebt(context.Context, *connect.Request[GetNetDebtRequest]) (*connect.Response[GetNetDebtResponse], error)
	GetTotalToPay(context.Context, *connect.Request[GetTotalToPayRequest]) (*connect.Response[GetTotalToPayResponse], error)
	Redistribute(context.Context, *connect.Request[RedistributeRequest]) (*connect.Response[RedistributeResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec)}, opts...)
	recordIncome := connect.NewUnaryHandler(LedgerServiceRecordIncomeProcedure, svc.RecordIncome, opts...)
	recordOutcome := connect.NewUnaryHandler(LedgerServiceRecordOutcomeProcedure, svc.RecordOutcome, opts...)
	deleteIncome := connect.NewUnaryHandler(LedgerServiceDeleteIncomeProcedure, svc.DeleteIncome, opts...)
	deleteOutcome := connect.NewUnaryHandler(LedgerServiceDeleteOutcomeProcedure, svc.DeleteOutcome, opts...)
	getBalance := connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...)
	getCategorySummary := connect.NewUnaryHandler(LedgerServiceGetCategorySummaryProcedure, svc.GetCategorySummary, opts...)
	getDebtSummary := connect.NewUnaryHandler(LedgerServiceGetDebtSummaryProcedure, svc.GetDebtSummary, opts...)
	getNetDebt := connect.NewUnaryHandler(LedgerServiceGetNetDebtProcedure, svc.GetNetDebt, opts...)
	getTotalToPay := connect.NewUnaryHandler(LedgerServiceGetTotalToPayProcedure, svc.GetTotalToPay, opts...)
	redistribute := connect.NewUnaryHandler(LedgerServiceRedistributeProcedure, svc.Redistribute, opts...)
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceRecordIncomeProcedure:
			recordIncome.ServeHTTP(w, r)
		case LedgerServiceRecordOutcomeProcedure:
			recordOutcome.ServeHTTP(w, r)
		case LedgerServiceDeleteIncomeProcedure:
			deleteIncome.ServeHTTP(w, r)
		case LedgerServiceDeleteOutcomeProcedure:
			deleteOutcome.ServeHTTP(w, r)
		case LedgerServiceGetBalanceProcedure:
			getBalance.ServeHTTP(w, r)
		case LedgerServiceGetCategorySummaryProcedure:
			getCategorySummary.ServeHTTP(w, r)
		case LedgerServiceGetDebtSummaryProcedure:
			getDebtSummary.ServeHTTP(w, r)
		case LedgerServiceGetNetDebtProcedure:
			getNetDebt.ServeHTTP(w, r)
		case LedgerServiceGetTotalToPayProcedure:
			getTotalToPay.ServeHTTP(w, r)
		case LedgerServiceRedistributeProcedure:
			redistribute.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LedgerServiceClient is a client for LedgerService.
type LedgerServiceClient interface {
	RecordIncome(context.Context, *connect.Request[RecordIncomeRequest]) (*connect.Response[RecordIncomeResponse], error)
	RecordOutcome(context.Context, *connect.Request[RecordOutcomeRequest]) (*connect.Response[RecordOutcomeResponse], error)
	DeleteIncome(context.Context, *connect.Request[DeleteIncomeRequest]) (*connect.Response[DeleteIncomeResponse], error)
	DeleteOutcome(context.Context, *connect.Request[DeleteOutcomeRequest]) (*connect.Response[DeleteOutcomeResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	GetCategorySummary(context.Context, *connect.Request[GetCategorySummaryRequest]) (*connect.Response[GetCategorySummaryResponse], error)
	GetDebtSummary(context.Context, *connect.Request[GetDebtSummaryRequest]) (*connect.Response[GetDebtSummaryResponse], error)
	GetNetDebt(context.Context, *connect.Request[GetNetDebtRequest]) (*connect.Response[GetNetDebtResponse], error)
	GetTotalToPay(context.Context, *connect.Request[GetTotalToPayRequest]) (*connect.Response[GetTotalToPayResponse], error)
	Redistribute(context.Context, *connect.Request[RedistributeRequest]) (*connect.Response[RedistributeResponse], error)
}

// NewLedgerServiceClient returns a client for the LedgerService served at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &ledgerServiceClient{
		recordIncome: connect.NewClient[RecordIncomeRequest, RecordIncomeResponse](httpClient, baseURL+LedgerServiceRecordIncomeProcedure, opts...),
		recordOutcome: connect.NewClient[RecordOutcomeRequest, RecordOutcomeResponse](httpClient, baseURL+LedgerServiceRecordOutcomeProcedure, opts...),
		deleteIncome: connect.NewClient[DeleteIncomeRequest, DeleteIncomeResponse](httpClient, baseURL+LedgerServiceDeleteIncomeProcedure, opts...),
		deleteOutcome: connect.NewClient[DeleteOutcomeRequest, DeleteOutcomeResponse](httpClient, baseURL+LedgerServiceDeleteOutcomeProcedure, opts...),
		getBalance: connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
		getCategorySummary: connect.NewClient[GetCategorySummaryRequest, GetCategorySummaryResponse](httpClient, baseURL+LedgerServiceGetCategorySummaryProcedure, opts...),
		getDebtSummary: connect.NewClient[GetDebtSummaryRequest, GetDebtSummaryResponse](httpClient, baseURL+LedgerServiceGetDebtSummaryProcedure, opts...),
		getNetDebt: connect.NewClient[GetNetDebtRequest, GetNetDebtResponse](httpClient, baseURL+LedgerServiceGetNetDebtProcedure, opts...),
		getTotalToPay: connect.NewClient[GetTotalToPayRequest, GetTotalToPayResponse](httpClient, baseURL+LedgerServiceGetTotalToPayProcedure, opts...),
		redistribute: connect.NewClient[RedistributeRequest, RedistributeResponse](httpClient, baseURL+LedgerServiceRedistributeProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	recordIncome *connect.Client[RecordIncomeRequest, RecordIncomeResponse]
	recordOutcome *connect.Client[RecordOutcomeRequest, RecordOutcomeResponse]
	deleteIncome *connect.Client[DeleteIncomeRequest, DeleteIncomeResponse]
	deleteOutcome *connect.Client[DeleteOutcomeRequest, DeleteOutcomeResponse]
	getBalance *connect.Client[GetBalanceRequest, GetBalanceResponse]
	getCategorySummary *connect.Client[GetCategorySummaryRequest, GetCategorySummaryResponse]
	getDebtSummary *connect.Client[GetDebtSummaryRequest, GetDebtSummaryResponse]
	getNetDebt *connect.Client[GetNetDebtRequest, GetNetDebtResponse]
	getTotalToPay *connect.Client[GetTotalToPayRequest, GetTotalToPayResponse]
	redistribute *connect.Client[RedistributeRequest, RedistributeResponse]
}

func (c *ledgerServiceClient) RecordIncome(ctx context.Context, req *connect.Request[RecordIncomeRequest]) (*connect.Response[RecordIncomeResponse], error) {
	return c.recordIncome.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordOutcome(ctx context.Context, req *connect.Request[RecordOutcomeRequest]) (*connect.Response[RecordOutcomeResponse], error) {
	return c.recordOutcome.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteIncome(ctx context.Context, req *connect.Request[DeleteIncomeRequest]) (*connect.Response[DeleteIncomeResponse], error) {
	return c.deleteIncome.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteOutcome(ctx context.Context, req *connect.Request[DeleteOutcomeRequest]) (*connect.Response[DeleteOutcomeResponse], error) {
	return c.deleteOutcome.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetCategorySummary(ctx context.Context, req *connect.Request[GetCategorySummaryRequest]) (*connect.Response[GetCategorySummaryResponse], error) {
	return c.getCategorySummary.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetDebtSummary(ctx context.Context, req *connect.Request[GetDebtSummaryRequest]) (*connect.Response[GetDebtSummaryResponse], error) {
	return c.getDebtSummary.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetNetDebt(ctx context.Context, req *connect.Request[GetNetDebtRequest]) (*connect.Response[GetNetDebtResponse], error) {
	return c.getNetDebt.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetTotalToPay(ctx context.Context, req *connect.Request[GetTotalToPayRequest]) (*connect.Response[GetTotalToPayResponse], error) {
	return c.getTotalToPay.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Redistribute(ctx context.Context, req *connect.Request[RedistributeRequest]) (*connect.Response[RedistributeResponse], error) {
	return c.redistribute.CallUnary(ctx, req)
}
