package validators

import "go.mongodb.org/mongo-driver/bson"

var LockerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"number",
			"size",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"size": bson.M{
				"bsonType": "string",
				"enum": []string{
					"small",
					"medium",
					"large",
				},
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"available",
					"reserved",
					"maintenance",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
