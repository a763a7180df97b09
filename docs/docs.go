// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// Package docs holds the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g cmd/server/docs.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `
{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "GitHub Repository",
			"url": "https://github.com/tomtom215/vidstream"
		},
		"license": {
			"name": "AGPL-3.0-or-later",
			"url": "https://www.gnu.org/licenses/agpl-3.0.html"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/health": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Get system health status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.HealthStatus"
										}
									}
								}
							]
						}
					}
				}
			}
		},
		"/health/live": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Liveness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/health/ready": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"503": {
						"description": "Not ready",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/analytics/{videoId}": {
			"post": {
				"tags": [
					"Analytics"
				],
				"summary": "Record a view",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "videoId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.AnalyticsRecord"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Malformed video id",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"404": {
						"description": "Unknown video or user",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"500": {
						"description": "Storage error",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"503": {
						"description": "Store timeout",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"get": {
				"tags": [
					"Analytics"
				],
				"summary": "List viewers of a video",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "videoId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/models.VideoViewer"
											}
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Malformed video id",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"500": {
						"description": "Storage error",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/users": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "List users",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Page size",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Offset",
						"name": "offset",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/models.User"
											}
										}
									}
								}
							]
						}
					}
				}
			}
		},
		"/users/me": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get my profile",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Profile not synced yet",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"Users"
				],
				"summary": "Create or update my profile",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.UpsertProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Updated",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"201": {
						"description": "Created",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"409": {
						"description": "Email already in use",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"patch": {
				"tags": [
					"Users"
				],
				"summary": "Edit my profile",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.UpdateProfileRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"409": {
						"description": "Email already in use",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"Users"
				],
				"summary": "Delete my profile",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/users/me/subscription": {
			"put": {
				"tags": [
					"Users"
				],
				"summary": "Set my subscription",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.SubscriptionRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/users/{id}": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get a user",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "User UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.User"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/users/{id}/subscription": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get a user's subscription",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "User UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.SubscriptionStatus"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/videos": {
			"get": {
				"tags": [
					"Videos"
				],
				"summary": "List videos",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Page size",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Offset",
						"name": "offset",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/models.Video"
											}
										}
									}
								}
							]
						}
					}
				}
			},
			"post": {
				"tags": [
					"Videos"
				],
				"summary": "Upload a video",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"multipart/form-data"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "file",
						"description": "Video file",
						"name": "file",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"description": "Title",
						"name": "title",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"description": "Description",
						"name": "description",
						"in": "formData"
					},
					{
						"type": "integer",
						"description": "Duration in seconds",
						"name": "duration",
						"in": "formData"
					},
					{
						"type": "string",
						"description": "free or paid (default free)",
						"name": "access",
						"in": "formData"
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.Video"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Validation error",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"413": {
						"description": "Payload too large",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"503": {
						"description": "Media host unavailable",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/videos/{id}": {
			"get": {
				"tags": [
					"Videos"
				],
				"summary": "Get a video",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.Video"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"Videos"
				],
				"summary": "Edit a video",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Body",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/models.UpdateVideoRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.Video"
										}
									}
								}
							]
						}
					},
					"403": {
						"description": "Not the owner",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"Videos"
				],
				"summary": "Delete a video",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Not the owner",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"503": {
						"description": "Media host unavailable",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/videos/{id}/view": {
			"post": {
				"tags": [
					"Videos"
				],
				"summary": "Count a play",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.ViewCount"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		},
		"/videos/{id}/playback": {
			"get": {
				"tags": [
					"Videos"
				],
				"summary": "Get playback URLs",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Video UUID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/models.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.Playback"
										}
									}
								}
							]
						}
					},
					"403": {
						"description": "SUBSCRIPTION_REQUIRED",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/models.APIResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"models.APIError": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"details": {
					"type": "object",
					"additionalProperties": true
				}
			}
		},
		"models.APIResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"data": {},
				"metadata": {
					"$ref": "#/definitions/models.Metadata"
				},
				"error": {
					"$ref": "#/definitions/models.APIError"
				}
			}
		},
		"models.Metadata": {
			"type": "object",
			"properties": {
				"timestamp": {
					"type": "string"
				},
				"query_time_ms": {
					"type": "integer"
				},
				"cached": {
					"type": "boolean"
				},
				"pagination": {
					"$ref": "#/definitions/models.PaginationInfo"
				}
			}
		},
		"models.PaginationInfo": {
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer"
				},
				"offset": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				},
				"has_more": {
					"type": "boolean"
				}
			}
		},
		"models.AnalyticsRecord": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"video_id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"views": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.VideoViewer": {
			"type": "object",
			"properties": {
				"user_id": {
					"type": "string"
				},
				"user_name": {
					"type": "string"
				},
				"user_email": {
					"type": "string"
				},
				"views": {
					"type": "integer"
				}
			}
		},
		"models.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"subscription": {
					"type": "boolean"
				},
				"active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.UpsertProfileRequest": {
			"type": "object",
			"required": [
				"email",
				"name"
			],
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100,
					"minLength": 1
				},
				"email": {
					"type": "string",
					"maxLength": 254
				}
			}
		},
		"models.UpdateProfileRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100,
					"minLength": 1
				},
				"email": {
					"type": "string",
					"maxLength": 254
				}
			}
		},
		"models.SubscriptionRequest": {
			"type": "object",
			"required": [
				"subscription"
			],
			"properties": {
				"subscription": {
					"type": "boolean"
				}
			}
		},
		"models.SubscriptionStatus": {
			"type": "object",
			"properties": {
				"user_id": {
					"type": "string"
				},
				"subscription": {
					"type": "boolean"
				}
			}
		},
		"models.Video": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"owner_id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"hls_url": {
					"type": "string"
				},
				"storage_key": {
					"type": "string"
				},
				"duration": {
					"type": "integer"
				},
				"access": {
					"type": "string"
				},
				"view_count": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"models.UpdateVideoRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"maxLength": 200,
					"minLength": 1
				},
				"description": {
					"type": "string",
					"maxLength": 5000
				},
				"duration": {
					"type": "integer",
					"maximum": 86400,
					"minimum": 0
				},
				"access": {
					"type": "string",
					"enum": [
						"free",
						"paid"
					]
				}
			}
		},
		"models.ViewCount": {
			"type": "object",
			"properties": {
				"video_id": {
					"type": "string"
				},
				"view_count": {
					"type": "integer"
				}
			}
		},
		"models.Playback": {
			"type": "object",
			"properties": {
				"video_id": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"hls_url": {
					"type": "string"
				}
			}
		},
		"models.HealthStatus": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"database": {
					"type": "string"
				},
				"database_type": {
					"type": "string"
				},
				"components": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				},
				"uptime_seconds": {
					"type": "number"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "HS256 JWT as \"Bearer <token>\"",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Vidstream API",
	Description:      "Video upload, playback gating and per-user view analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
