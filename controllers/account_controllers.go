package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/store"
	"github.com/yeremiapane/delivery-services/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionTTL = 24 * time.Hour

var accountSchema = store.Schema{
	"id":         "id",
	"acc_type":   "user_type",
	"inactive":   "inactive",
	"last_login": "last_login",
	"email":      "email",
}

type AccountController struct {
	DB        *gorm.DB
	accounts  *store.Table[models.Account]
	jwtSecret []byte
	now       func() time.Time
	fields    fieldRegistry
}

func NewAccountController(db *gorm.DB, jwtSecret []byte) *AccountController {
	ac := &AccountController{
		DB:        db,
		accounts:  store.NewTable[models.Account](db, "id", accountSchema),
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
	ac.fields = fieldRegistry{
		"username":         stringField("username", nil, ""),
		"email":            stringField("email", nil, ""),
		"notif_preference": stringField("notif_preference", models.IsValidNotifPreference, "Invalid notification preference."),
		"user_type":        stringField("user_type", models.IsValidAccountType, "Invalid account type."),
		"inactive":         boolField("inactive"),
		"password":         ac.setPassword,
	}
	return ac
}

func (ac *AccountController) setPassword(value interface{}) (map[string]interface{}, error) {
	plain, ok := value.(string)
	if !ok {
		return nil, utils.BadRequest("password must be a string")
	}
	hashed, err := hashPassword(plain)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"password": hashed}, nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func hashPassword(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", utils.BadRequest("Password must be at most %d bytes.", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// EnsureGuest creates the guest account unless it already exists.
func (ac *AccountController) EnsureGuest(ctx context.Context) error {
	return ensureGuest(ctx, ac.accounts, ac.now())
}

func ensureGuest(ctx context.Context, accounts *store.Table[models.Account], now time.Time) error {
	guest := models.NewGuestAccount(now)
	err := accounts.Insert(ctx, &guest)
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		utils.ErrorLogger.Printf("Error ensuring guest account: %v", err)
		return err
	}
	return nil
}

// accountFilter builds the query shared by list and bulk delete.
func (ac *AccountController) accountFilter(c *gin.Context) (*store.Query, error) {
	q := ac.accounts.Query()
	if accType, ok := c.GetQuery("acc_type"); ok {
		if !models.IsValidAccountType(accType) {
			return nil, utils.BadRequest("Invalid account type")
		}
		q.Eq("acc_type", accType)
	}
	if raw, ok := c.GetQuery("inactive"); ok {
		switch strings.ToLower(raw) {
		case "true":
			q.Eq("inactive", true)
		case "false":
			q.Eq("inactive", false)
		default:
			return nil, utils.BadRequest("Invalid account status")
		}
	}
	if raw, ok := c.GetQuery("last_login"); ok {
		cutoff, err := hoursFilter("last_login", raw, ac.now())
		if err != nil {
			return nil, err
		}
		q.Where("last_login", store.Gte, models.FormatLoginTime(cutoff))
	}
	return q, nil
}

// GetAccounts -> GET /account
func (ac *AccountController) GetAccounts(c *gin.Context) {
	q, err := ac.accountFilter(c)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	accounts, err := ac.accounts.Scan(c.Request.Context(), q)
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, accounts)
}

type accountRequest struct {
	ID          utils.FlexString `json:"id" binding:"required"`
	Username    string           `json:"username" binding:"required"`
	Preferences *struct {
		NotifPreference string `json:"notif_preference" binding:"required"`
		UserType        string `json:"user_type" binding:"required"`
		Inactive        *bool  `json:"inactive" binding:"required"`
	} `json:"preferences" binding:"required"`
	Credentials *struct {
		Email    string `json:"email" binding:"required"`
		Password *string `json:"password" binding:"required"`
	} `json:"credentials" binding:"required"`
}

// CreateAccount -> POST /account
func (ac *AccountController) CreateAccount(c *gin.Context) {
	var body accountRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Request body is missing or incomplete.")
		return
	}
	if !models.IsValidAccountType(body.Preferences.UserType) {
		utils.RespondMessage(c, http.StatusBadRequest, "Invalid account type.")
		return
	}
	if !models.IsValidNotifPreference(body.Preferences.NotifPreference) {
		utils.RespondMessage(c, http.StatusBadRequest, "Invalid notification preference.")
		return
	}

	hashed, err := hashPassword(*body.Credentials.Password)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	account := models.Account{
		ID:              body.ID.String(),
		Username:        body.Username,
		NotifPreference: body.Preferences.NotifPreference,
		UserType:        body.Preferences.UserType,
		Inactive:        *body.Preferences.Inactive,
		Email:           body.Credentials.Email,
		Password:        hashed,
		LastLogin:       models.LastLoginPlaceholder,
	}
	if err := ac.accounts.Insert(c.Request.Context(), &account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			utils.RespondMessage(c, http.StatusBadRequest, "Account already exists.")
			return
		}
		utils.RespondFailure(c, err)
		return
	}

	utils.InfoLogger.WithField("account_id", account.ID).Info("Account created")
	utils.RespondMessage(c, http.StatusCreated, "Account created successfully.")
}

// DeleteAccounts -> DELETE /account[?acc_type=]
// The guest account is recreated in the same transaction.
func (ac *AccountController) DeleteAccounts(c *gin.Context) {
	q := ac.accounts.Query()
	accType, filtered := c.GetQuery("acc_type")
	if filtered {
		if !models.IsValidAccountType(accType) {
			utils.RespondMessage(c, http.StatusBadRequest, "Invalid account type")
			return
		}
		q.Eq("acc_type", accType)
	}

	ctx := c.Request.Context()
	var deleted int64
	err := ac.accounts.Transaction(ctx, func(tx *gorm.DB) error {
		accounts := ac.accounts.WithTx(tx)
		n, err := accounts.DeleteWhere(ctx, q)
		if err != nil {
			return err
		}
		deleted = n
		return ensureGuest(ctx, accounts, ac.now())
	})
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}

	msg := "All accounts deleted successfully"
	if filtered {
		msg = "All " + accType + " accounts deleted successfully"
	}
	utils.RespondDeleted(c, msg, deleted)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login -> POST /account/login
func (ac *AccountController) Login(c *gin.Context) {
	var body loginRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Request body is missing or no email provided")
		return
	}
	ctx := c.Request.Context()
	loginTime := models.FormatLoginTime(ac.now())

	if body.Email == models.GuestAccountID {
		if _, err := ac.accounts.Get(ctx, models.GuestAccountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondMessage(c, http.StatusBadRequest, "Guest account not available")
				return
			}
			utils.RespondFailure(c, err)
			return
		}
		if err := ac.accounts.Update(ctx, models.GuestAccountID, map[string]interface{}{"last_login": loginTime}); err != nil {
			utils.RespondFailure(c, err)
			return
		}
		ac.respondSession(c, "Guest user successfully signed in.", models.GuestAccountID, models.GuestAccountID)
		return
	}

	matches, err := ac.accounts.Scan(ctx, ac.accounts.Query().Eq("email", body.Email))
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	if len(matches) == 0 {
		utils.RespondMessage(c, http.StatusBadRequest, "Invalid email or password")
		return
	}
	user := matches[0]
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)) != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Invalid email or password")
		return
	}

	if err := ac.accounts.Update(ctx, user.ID, map[string]interface{}{"last_login": loginTime}); err != nil {
		utils.RespondFailure(c, err)
		return
	}
	ac.respondSession(c, "Registered user logged in successfully.", user.ID, user.UserType)
}

func (ac *AccountController) respondSession(c *gin.Context, msg, accountID, userType string) {
	token, err := utils.GenerateToken(accountID, userType, ac.jwtSecret, sessionTTL)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	utils.InfoLogger.WithField("account_id", accountID).Info("Account signed in")
	utils.RespondJSON(c, http.StatusOK, loginResponse{Message: msg, Token: token})
}

// GetAccount -> GET /account/:id
func (ac *AccountController) GetAccount(c *gin.Context) {
	account, err := ac.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, account)
}

type patchRequest struct {
	UpdateKey   string      `json:"updateKey" binding:"required"`
	UpdateValue interface{} `json:"updateValue"`
}

func (p *patchRequest) validate() error {
	if p.UpdateValue == nil {
		return utils.BadRequest("Missing updateValue in body")
	}
	return nil
}

// UpdateAccount -> PATCH /account/:id
func (ac *AccountController) UpdateAccount(c *gin.Context) {
	var body patchRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Missing updateKey in body")
		return
	}
	if err := body.validate(); err != nil {
		utils.RespondFailure(c, err)
		return
	}
	fields, err := ac.fields.resolve(body.UpdateKey, body.UpdateValue)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}

	id := c.Param("id")
	if err := ac.accounts.Update(c.Request.Context(), id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Account updated successfully")
}

// DeleteAccount -> DELETE /account/:id
func (ac *AccountController) DeleteAccount(c *gin.Context) {
	if err := ac.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "User deleted successfully")
}
