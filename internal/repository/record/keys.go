package record

// idField carries the record identity inside its hash so that a record
// without attributes still has a non-empty hash.
const idField = "id"

func (r *Repo) recKey(recordType, id string) string {
	return r.prefix + "rec:" + recordType + ":" + id
}

func (r *Repo) idsKey(recordType string) string {
	return r.prefix + "ids:" + recordType
}

func (r *Repo) relKey(recordType, id, relation string) string {
	return r.prefix + "rel:" + recordType + ":" + id + ":" + relation
}
