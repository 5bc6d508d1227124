package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionPackageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"org_id",
			"client_id",
			"sessions_total",
			"sessions_used",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"org_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"client_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"label": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"sessions_total": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"sessions_used": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"succeeded",
					"failed",
				},
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
