package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"todo-collab/internal/config"
	"todo-collab/internal/middleware"
	"todo-collab/internal/models"
	"todo-collab/pkg/logger"
	"todo-collab/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// resetTokenTTL adalah masa berlaku absolut kode reset password.
const resetTokenTTL = 20 * time.Minute

// sessionTTL adalah masa berlaku token login.
const sessionTTL = 24 * time.Hour

// getUserByID mengambil user dari cache Redis, fallback ke database.
func getUserByID(id int) (*models.User, error) {
	cacheKey := fmt.Sprintf("user:%d", id)
	if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
		var user models.User
		if err = json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	}

	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, username, name, email, date_created FROM users WHERE id = $1",
		id).Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.DateCreated)
	if err != nil {
		return nil, err
	}

	if userJSON, err := json.Marshal(user); err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, userJSON, time.Hour)
	}
	return &user, nil
}

func invalidateUserCache(id int) {
	config.RedisClient.Del(config.Ctx, fmt.Sprintf("user:%d", id))
}

// Register membuat akun baru. Username dan email disimpan lowercase.
func Register(c *fiber.Ctx) error {
	// struct RegisterRequest menerima inputan dari user
	type RegisterRequest struct {
		Name     string `json:"name" validate:"required"`
		Username string `json:"username" validate:"required,excludesall=@?"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Validasi dengan validator
	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Hash the password using bcrypt with default cost
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error hashing password",
			"success": false,
			"status":  500,
		})
	}

	// Insert user baru; unique violation berarti username/email sudah dipakai
	var userID int
	err = config.DB.QueryRow(
		"INSERT INTO users (username, name, email, password) VALUES ($1, $2, $3, $4) RETURNING id",
		req.Username, req.Name, req.Email, string(hashedPassword)).Scan(&userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				logger.SecurityLogger.Warn("Duplicate identity", zap.String("username", req.Username))
				return c.Status(409).JSON(fiber.Map{
					"message": "Username or email already exists",
					"success": false,
					"status":  409,
				})
			}
		}
		logger.ErrorLogger.Error("Error creating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating user",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("User registered successfully", zap.Int("userID", userID))
	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"success": true,
		"status":  201,
		"data": fiber.Map{
			"id": userID,
		},
	})
}

// Login memverifikasi kredensial dan menerbitkan token sesi.
func Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// lookup case-insensitive: username tersimpan lowercase
	username := strings.ToLower(strings.TrimSpace(req.Username))

	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, username, name, email, password, date_created FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.Password, &user.DateCreated)
	if err != nil {
		// user tidak ditemukan dan password salah sengaja dibuat tidak bisa dibedakan
		logger.SecurityLogger.Warn("User not found", zap.String("username", username))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("username", username))
		return c.Status(401).JSON(fiber.Map{
			"message": "Invalid credentials",
			"success": false,
			"status":  401,
		})
	}

	// token sesi berisi user_id, jti untuk revocation saat logout, dan exp
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(sessionTTL).Unix(),
	})

	tokenString, err := jwtToken.SignedString(config.SecretKey)
	if err != nil {
		logger.ErrorLogger.Error("Error generating token", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating token",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Logged in",
		"success": true,
		"status":  200,
		"data": fiber.Map{
			"token": tokenString,
			"user":  user.ToSafeMap(),
		},
	})
}

// Logout me-revoke jti token saat ini di Redis sampai token kedaluwarsa.
func Logout(c *fiber.Ctx) error {
	jti := c.Locals("jti").(string)
	exp := c.Locals("exp").(int64)

	ttl := time.Until(time.Unix(exp, 0))
	if ttl > 0 {
		if err := config.RedisClient.SetEX(config.Ctx, "revoked:"+jti, "1", ttl).Err(); err != nil {
			logger.ErrorLogger.Error("Error revoking session", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error logging out",
				"success": false,
				"status":  500,
			})
		}
	}

	logger.AuditLogger.Info("Logout", zap.Int("user_id", c.Locals("userID").(int)))
	return c.JSON(fiber.Map{
		"message": "Logged out",
		"success": true,
		"status":  200,
	})
}

// WhoAmI bisa diakses tanpa login: hanya melaporkan status autentikasi.
func WhoAmI(c *fiber.Ctx) error {
	userID, _, _, err := middleware.ParseBearer(c.Get("Authorization"))
	if err != nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	user, err := getUserByID(userID)
	if err != nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	return c.JSON(fiber.Map{
		"authenticated": true,
		"user":          user.ToSafeMap(),
	})
}

// GetProfile mengembalikan profil user yang sedang login.
func GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	user, err := getUserByID(userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching profile", zap.Error(err))
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Profile fetched successfully",
		"success": true,
		"status":  200,
		"data":    user.ToSafeMap(),
	})
}

// UpdateProfile mengubah name dan/atau username. Email tidak bisa diubah.
func UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateProfileRequest struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update profile", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	var current models.User
	if err := config.DB.QueryRow(
		"SELECT username, name FROM users WHERE id = $1",
		userID).Scan(&current.Username, &current.Name); err != nil {
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating profile",
			"success": false,
			"status":  500,
		})
	}

	// validasi semua field dulu, baru kedua kolom ditulis dalam satu statement
	newUsername := current.Username
	if req.Username != nil {
		newUsername = strings.ToLower(strings.TrimSpace(*req.Username))
		if newUsername == "" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Username required",
				"success": false,
				"status":  400,
			})
		}

		// username baru harus unik terhadap semua user lain
		var taken int
		err := config.DB.QueryRow(
			"SELECT id FROM users WHERE username = $1 AND id != $2",
			newUsername, userID).Scan(&taken)
		if err == nil {
			logger.SecurityLogger.Warn("Username taken", zap.String("username", newUsername))
			return c.Status(409).JSON(fiber.Map{
				"message": "Username already taken",
				"success": false,
				"status":  409,
			})
		}
		if err != sql.ErrNoRows {
			logger.ErrorLogger.Error("Error checking username", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error updating profile",
				"success": false,
				"status":  500,
			})
		}
	}

	newName := current.Name
	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			newName = trimmed
		}
	}

	if _, err := config.DB.Exec(
		"UPDATE users SET username = $1, name = $2 WHERE id = $3",
		newUsername, newName, userID); err != nil {
		logger.ErrorLogger.Error("Error updating profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating profile",
			"success": false,
			"status":  500,
		})
	}

	invalidateUserCache(userID)

	logger.AuditLogger.Info("Profile updated", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"success": true,
		"status":  200,
	})
}

// ChangePassword mengganti password setelah memverifikasi password lama.
func ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in change password", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	var currentHash string
	err := config.DB.QueryRow(
		"SELECT password FROM users WHERE id = $1", userID).Scan(&currentHash)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error changing password",
			"success": false,
			"status":  500,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.CurrentPassword)); err != nil {
		logger.SecurityLogger.Warn("Wrong current password", zap.Int("user_id", userID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Incorrect password",
			"success": false,
			"status":  403,
		})
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error changing password",
			"success": false,
			"status":  500,
		})
	}

	if _, err := config.DB.Exec(
		"UPDATE users SET password = $1 WHERE id = $2", string(newHash), userID); err != nil {
		logger.ErrorLogger.Error("Error updating password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error changing password",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Password changed", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Password changed",
		"success": true,
		"status":  200,
	})
}

// ForgotPassword menerbitkan kode reset 20 menit dan mengirimkannya via email.
// Kode baru selalu menimpa kode lama: hanya satu kode aktif per user.
func ForgotPassword(c *fiber.Ctx) error {
	type ForgotRequest struct {
		Username string `json:"username" validate:"required"`
	}

	var req ForgotRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in forgot password", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, name, email FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		logger.SecurityLogger.Warn("Reset requested for unknown account", zap.String("username", username))
		return c.Status(404).JSON(fiber.Map{
			"message": "No such account",
			"success": false,
			"status":  404,
		})
	}

	code, err := token.NewResetCode()
	if err != nil {
		logger.ErrorLogger.Error("Error generating reset code", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error generating reset code",
			"success": false,
			"status":  500,
		})
	}
	expiry := time.Now().UTC().Add(resetTokenTTL)

	// token dan expiry selalu ditulis berpasangan
	if _, err := config.DB.Exec(
		"UPDATE users SET reset_token = $1, reset_token_expiry = $2 WHERE id = $3",
		code, expiry, user.ID); err != nil {
		logger.ErrorLogger.Error("Error storing reset code", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error storing reset code",
			"success": false,
			"status":  500,
		})
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour password reset code is: %s\nThis code will expire in 20 minutes.",
		user.Name, code)
	if err := config.Mailer.Send(user.Email, "Password Reset Code", body); err != nil {
		// kode tetap tersimpan walau pengiriman gagal
		logger.ErrorLogger.Error("Mail error", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Failed to send email",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Reset code sent", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Reset code sent",
		"success": true,
		"status":  200,
	})
}

// ResetPassword menukar kode reset dengan password baru. Kode harus cocok
// persis (case-sensitive) dan belum kedaluwarsa; kode hanya bisa dipakai
// sekali karena kedua field reset dikosongkan dalam satu UPDATE.
func ResetPassword(c *fiber.Ctx) error {
	type ResetRequest struct {
		Username    string `json:"username" validate:"required"`
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}

	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in reset password", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	code := strings.TrimSpace(req.Token)

	var user models.User
	err := config.DB.QueryRow(
		"SELECT id, reset_token, reset_token_expiry FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.ResetToken, &user.ResetTokenExpiry)
	if err != nil || !user.ResetToken.Valid || user.ResetToken.String != code {
		logger.SecurityLogger.Warn("Invalid reset token", zap.String("username", username))
		return c.Status(403).JSON(fiber.Map{
			"message": "Invalid token or username",
			"success": false,
			"status":  403,
		})
	}

	if !user.ResetTokenExpiry.Valid || user.ResetTokenExpiry.Time.Before(time.Now().UTC()) {
		logger.SecurityLogger.Warn("Expired reset token", zap.String("username", username))
		return c.Status(403).JSON(fiber.Map{
			"message": "Token expired",
			"success": false,
			"status":  403,
		})
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error resetting password",
			"success": false,
			"status":  500,
		})
	}

	// ganti password dan hapus token dalam satu statement
	if _, err := config.DB.Exec(
		"UPDATE users SET password = $1, reset_token = NULL, reset_token_expiry = NULL WHERE id = $2",
		string(newHash), user.ID); err != nil {
		logger.ErrorLogger.Error("Error resetting password", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error resetting password",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Password reset successful", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{
		"message": "Password reset successful",
		"success": true,
		"status":  200,
	})
}

// ListUsers mengembalikan semua user lain (untuk pencarian collaborator).
func ListUsers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	rows, err := config.DB.Query(
		"SELECT id, username FROM users WHERE id != $1 ORDER BY username", userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching users",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	users := []fiber.Map{}
	for rows.Next() {
		var id int
		var username string
		if err := rows.Scan(&id, &username); err != nil {
			logger.ErrorLogger.Error("Error scanning users", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning users",
				"success": false,
				"status":  500,
			})
		}
		users = append(users, fiber.Map{"id": id, "username": username})
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over users", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over users",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Users fetched successfully",
		"success": true,
		"status":  200,
		"data":    fiber.Map{"users": users},
	})
}
