package repositories

func (r *FileTodoRepo) Path() string {
	return r.path
}
