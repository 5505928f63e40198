package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dc-panel/internal/database"
	"dc-panel/internal/models"
	"dc-panel/internal/services/jobs"
)

// GetClusters lists vCenter clusters with their last-synced health.
func GetClusters(c *fiber.Ctx) error {
	var clusters []models.Cluster
	if err := database.DB.Order("name").Find(&clusters).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(clusters)
}

func GetCluster(c *fiber.Ctx) error {
	var cluster models.Cluster
	if err := database.DB.First(&cluster, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Cluster not found",
		})
	}

	var servers []models.Server
	database.DB.Where("cluster_id = ?", cluster.ID).Order("hostname").Find(&servers)

	return c.JSON(fiber.Map{
		"cluster": cluster,
		"servers": servers,
	})
}

func CreateCluster(c *fiber.Ctx) error {
	type Request struct {
		Name        string `json:"name"`
		VcenterHost string `json:"vcenter_host"`
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	cluster := models.Cluster{
		Name:        req.Name,
		VcenterHost: req.VcenterHost,
		Health:      "unknown",
	}
	if err := database.DB.Create(&cluster).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(cluster)
}

func DeleteCluster(c *fiber.Ctx) error {
	if err := database.DB.Delete(&models.Cluster{}, c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// SyncCluster enqueues a cluster_sync job; the executor talks to vCenter and
// writes the counters back.
func SyncCluster(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid ID",
		})
	}

	var cluster models.Cluster
	if err := database.DB.First(&cluster, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Cluster not found",
		})
	}

	job, err := jobs.Enqueue(models.JobTypeClusterSync, map[string]interface{}{
		"cluster_ids": []int{id},
	}, nil)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}
