package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/jobs"
)

// GetServers lists the server inventory with optional filters.
func GetServers(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Server{})
	if clusterID := c.Query("cluster_id"); clusterID != "" {
		query = query.Where("cluster_id = ?", clusterID)
	}
	if powerState := c.Query("power_state"); powerState != "" {
		query = query.Where("power_state = ?", powerState)
	}

	var servers []models.Server
	if err := query.Order("hostname").Find(&servers).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(servers)
}

func GetServer(c *fiber.Ctx) error {
	var server models.Server
	if err := database.DB.First(&server, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Server not found",
		})
	}
	return c.JSON(server)
}

type ServerRequest struct {
	Hostname     string `json:"hostname"`
	IdracAddress string `json:"idrac_address"`
	Model        string `json:"model"`
	ServiceTag   string `json:"service_tag"`
	ClusterID    *uint  `json:"cluster_id"`
	RackLocation string `json:"rack_location"`
}

func CreateServer(c *fiber.Ctx) error {
	var req ServerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Hostname == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "hostname is required",
		})
	}

	server := models.Server{
		Hostname:     req.Hostname,
		IdracAddress: req.IdracAddress,
		Model:        req.Model,
		ServiceTag:   req.ServiceTag,
		ClusterID:    req.ClusterID,
		RackLocation: req.RackLocation,
		PowerState:   "unknown",
	}
	if err := database.DB.Create(&server).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(server)
}

func UpdateServer(c *fiber.Ctx) error {
	var server models.Server
	if err := database.DB.First(&server, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Server not found",
		})
	}

	var req ServerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Hostname != "" {
		server.Hostname = req.Hostname
	}
	server.IdracAddress = req.IdracAddress
	server.Model = req.Model
	server.ServiceTag = req.ServiceTag
	server.ClusterID = req.ClusterID
	server.RackLocation = req.RackLocation

	if err := database.DB.Save(&server).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(server)
}

func DeleteServer(c *fiber.Ctx) error {
	if err := database.DB.Delete(&models.Server{}, c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// DiscoverServers enqueues a discovery job for an address range. The
// executor performs the actual iDRAC scanning.
func DiscoverServers(c *fiber.Ctx) error {
	type Request struct {
		Subnet string `json:"subnet"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Subnet == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "subnet is required",
		})
	}

	job, err := jobs.Enqueue(models.JobTypeDiscovery, map[string]interface{}{
		"subnet": req.Subnet,
	}, nil)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}

// RefreshServer enqueues a sync job for one server.
func RefreshServer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid ID",
		})
	}

	var server models.Server
	if err := database.DB.First(&server, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Server not found",
		})
	}

	job, err := jobs.Enqueue(models.JobTypeClusterSync, map[string]interface{}{
		"server_ids": []int{id},
	}, nil)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}
