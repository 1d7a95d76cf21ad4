package s3

// Placeholder for an S3 backed SnapshotStore implementation.
//
// Intent: provide a production ready persistent store using AWS S3 (or
// compatible APIs) implementing the core.SnapshotStore interface, reusing the
// JSON encoding from the parent snapshot package so objects stay portable
// across backends. This file intentionally remains a stub so that downstream
// contributors can supply credentials / client wiring without pulling an AWS
// dependency into minimal builds. If you implement this, keep the dependency
// surface narrow and make the configuration (bucket, prefix, ACL, encryption)
// explicit via a small Config struct.
