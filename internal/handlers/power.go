package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/jobs"
)

// GetPDUs lists PDUs with their outlets.
func GetPDUs(c *fiber.Ctx) error {
	var pdus []models.PDU
	if err := database.DB.Order("name").Find(&pdus).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	type pduWithOutlets struct {
		models.PDU
		Outlets []models.PDUOutlet `json:"outlets"`
	}

	result := make([]pduWithOutlets, 0, len(pdus))
	for _, pdu := range pdus {
		entry := pduWithOutlets{PDU: pdu}
		database.DB.Where("pdu_id = ?", pdu.ID).Order("outlet").Find(&entry.Outlets)
		result = append(result, entry)
	}
	return c.JSON(result)
}

func CreatePDU(c *fiber.Ctx) error {
	type Request struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Model   string `json:"model"`
		Outlets int    `json:"outlets"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" || req.Address == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "name and address are required",
		})
	}

	pdu := models.PDU{
		Name:    req.Name,
		Address: req.Address,
		Model:   req.Model,
	}
	if err := database.DB.Create(&pdu).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	for i := 1; i <= req.Outlets; i++ {
		database.DB.Create(&models.PDUOutlet{
			PDUID:  pdu.ID,
			Outlet: i,
			State:  "unknown",
		})
	}

	return c.JSON(pdu)
}

func DeletePDU(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := database.DB.Where("pdu_id = ?", id).Delete(&models.PDUOutlet{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := database.DB.Delete(&models.PDU{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// AssignOutlet maps an outlet to the server it feeds.
func AssignOutlet(c *fiber.Ctx) error {
	type Request struct {
		ServerID *uint `json:"server_id"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var outlet models.PDUOutlet
	if err := database.DB.First(&outlet, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Outlet not found",
		})
	}

	outlet.ServerID = req.ServerID
	if err := database.DB.Save(&outlet).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(outlet)
}

// PowerAction enqueues a power_control job for an outlet. The panel never
// talks to a PDU itself; the executor performs the API call and writes the
// outlet state back.
func PowerAction(c *fiber.Ctx) error {
	outletID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid ID",
		})
	}

	action := c.Params("action")
	switch action {
	case "on", "off", "cycle":
	default:
		return c.Status(400).JSON(fiber.Map{
			"error": "action must be on, off or cycle",
		})
	}

	var outlet models.PDUOutlet
	if err := database.DB.First(&outlet, outletID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Outlet not found",
		})
	}

	job, err := jobs.Enqueue(models.JobTypePowerControl, map[string]interface{}{
		"pdu_id":    outlet.PDUID,
		"outlet_id": outlet.ID,
		"outlet":    outlet.Outlet,
	}, map[string]interface{}{
		"action": action,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}
