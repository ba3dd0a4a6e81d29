package handlers

import (
	"strings"

	"todo-collab/internal/config"
	"todo-collab/internal/models"
	"todo-collab/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ListTasks mengambil semua task milik user yang sedang login.
// Query param ?sort= menerima added (default), due, atau priority.
func ListTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	sort := c.Query("sort", "added")

	query := "SELECT id, user_id, title, due_date, priority, done, date_added FROM tasks WHERE user_id = $1 " +
		models.TaskOrderClause(sort)

	rows, err := config.DB.Query(query, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	defer rows.Close()

	tasks := []map[string]interface{}{}
	for rows.Next() {
		var task models.Task
		err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.DueDate, &task.Priority, &task.Done, &task.DateAdded)
		if err != nil {
			logger.ErrorLogger.Error("Error scanning tasks", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error scanning tasks",
				"success": false,
				"status":  500,
			})
		}
		tasks = append(tasks, task.ToMap())
	}
	if err = rows.Err(); err != nil {
		logger.ErrorLogger.Error("Error iterating over tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error iterating over tasks",
			"success": false,
			"status":  500,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// CreateTask membuat task pribadi baru.
func CreateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	// struct TaskRequest menerima inputan dari user
	type TaskRequest struct {
		Title    string `json:"title"`
		DueDate  string `json:"due_date"`
		DueTime  string `json:"due_time"`
		Priority string `json:"priority"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Title required",
			"success": false,
			"status":  400,
		})
	}

	priority := req.Priority
	if priority == "" {
		priority = "Mid"
	}
	if !models.ValidPriority(priority) {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid priority",
			"success": false,
			"status":  400,
		})
	}

	// gabungkan tanggal dan jam menjadi satu field kanonik
	due := models.CombineDueDate(req.DueDate, req.DueTime)

	var taskID int
	err := config.DB.QueryRow(
		"INSERT INTO tasks (user_id, title, due_date, priority) VALUES ($1, $2, $3, $4) RETURNING id",
		userID, title, due, priority,
	).Scan(&taskID)
	if err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Task created successfully", zap.Int("task_id", taskID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task added",
		"success": true,
		"status":  201,
		"id":      taskID,
	})
}

// UpdateTask mengubah sebagian field task. Field yang tidak dikirim tidak
// berubah; body kosong adalah no-op.
func UpdateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		logger.ErrorLogger.Error("Invalid task ID", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	// lookup difilter user_id: task milik user lain tampak tidak ada
	var task models.Task
	err = config.DB.QueryRow(
		"SELECT id, title, due_date, priority, done FROM tasks WHERE id = $1 AND user_id = $2",
		taskID, userID).Scan(&task.ID, &task.Title, &task.DueDate, &task.Priority, &task.Done)
	if err != nil {
		logger.SecurityLogger.Warn("Task not found", zap.Int("task_id", taskID), zap.Int("user_id", userID))
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateTaskRequest struct {
		Title    *string `json:"title"`
		Priority *string `json:"priority"`
		DueDate  *string `json:"due_date"`
		DueTime  *string `json:"due_time"`
		Done     *bool   `json:"done"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	// validasi semua field dulu; baru setelah lolos semua ditulis sekali,
	// supaya request yang sebagian invalid tidak meninggalkan perubahan parsial
	title := task.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			return c.Status(400).JSON(fiber.Map{
				"message": "Title required",
				"success": false,
				"status":  400,
			})
		}
	}

	priority := task.Priority
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return c.Status(400).JSON(fiber.Map{
				"message": "Invalid priority",
				"success": false,
				"status":  400,
			})
		}
		priority = *req.Priority
	}

	// aturan combine dijalankan ulang jika salah satu bagian due dikirim
	due := task.DueDate
	if req.DueDate != nil || req.DueTime != nil {
		var dueDate, dueTime string
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}
		if req.DueTime != nil {
			dueTime = *req.DueTime
		}
		if combined := models.CombineDueDate(dueDate, dueTime); combined.Valid {
			due = combined
		}
	}

	done := task.Done
	if req.Done != nil {
		done = *req.Done
	}

	if _, err := config.DB.Exec(
		"UPDATE tasks SET title = $1, priority = $2, due_date = $3, done = $4 WHERE id = $5",
		title, priority, due, done, taskID); err != nil {
		logger.ErrorLogger.Error("Error updating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating task",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Task updated", zap.Int("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task updated",
		"success": true,
		"status":  200,
	})
}

// DeleteTask menghapus task milik user yang sedang login.
func DeleteTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		logger.ErrorLogger.Error("Invalid task ID", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid task ID",
			"success": false,
			"status":  400,
		})
	}

	res, err := config.DB.Exec(
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", taskID, userID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting task",
			"success": false,
			"status":  500,
		})
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "Task not found",
			"success": false,
			"status":  404,
		})
	}

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task deleted",
		"success": true,
		"status":  200,
	})
}
