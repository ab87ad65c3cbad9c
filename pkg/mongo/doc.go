// Package mongo connects the audit log to MongoDB.
//
//	client, err := mongo.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	sink := audit.NewMongoSink(mongo.Collection(client, cfg))
//	if err := sink.EnsureIndexes(ctx); err != nil {
//		return err
//	}
package mongo
